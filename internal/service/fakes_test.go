package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Freeeeeet/clinic_scheduler/internal/model"
	"github.com/Freeeeeet/clinic_scheduler/internal/notify"
	"github.com/stretchr/testify/mock"
)

// memDB хранилище в памяти, общее для фейковых репозиториев.
// Транзакции не сериализуются: изоляцию дают только блокировки дня врача.
type memDB struct {
	mu sync.Mutex

	nextID       int64
	users        map[int64]model.User
	specialties  map[int64][]model.Specialty
	windows      map[int64]model.AvailabilityWindow
	appointments map[int64]model.Appointment
	history      []model.HistoryEntry
	clock        time.Time

	// failHistory заставляет AddHistory вернуть ошибку
	failHistory error
	// beforeBookedRead вызывается перед чтением занятых слотов дня
	beforeBookedRead func()

	locks    map[dayKey]*sync.Mutex
	dayLocks int
}

type dayKey struct {
	doctorID int64
	date     string
}

func newMemDB() *memDB {
	return &memDB{
		users:        map[int64]model.User{},
		specialties:  map[int64][]model.Specialty{},
		windows:      map[int64]model.AvailabilityWindow{},
		appointments: map[int64]model.Appointment{},
		locks:        map[dayKey]*sync.Mutex{},
		clock:        time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC),
	}
}

func (db *memDB) id() int64 {
	db.nextID++
	return db.nextID
}

// tick монотонное время для created_at
func (db *memDB) tick() time.Time {
	db.clock = db.clock.Add(time.Second)
	return db.clock
}

func (db *memDB) dayLock(key dayKey) *sync.Mutex {
	db.mu.Lock()
	defer db.mu.Unlock()

	m, ok := db.locks[key]
	if !ok {
		m = &sync.Mutex{}
		db.locks[key] = m
	}
	return m
}

func (db *memDB) lockCount() int {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.dayLocks
}

// fakeTx журнал отката и удерживаемые блокировки одной транзакции.
// undo-функции вызываются под db.mu.
type fakeTx struct {
	undo    []func()
	held    map[dayKey]bool
	unlocks []func()
}

type txKey struct{}

func txOf(ctx context.Context) *fakeTx {
	tx, _ := ctx.Value(txKey{}).(*fakeTx)
	return tx
}

func inTx(ctx context.Context) bool {
	return txOf(ctx) != nil
}

// onRollback запоминает откат изменения; вне транзакции изменение сразу зафиксировано
func onRollback(ctx context.Context, fn func()) {
	if tx := txOf(ctx); tx != nil {
		tx.undo = append(tx.undo, fn)
	}
}

// saveUser запоминает прежнее значение строки; вызывать под db.mu
func (db *memDB) saveUser(ctx context.Context, id int64) {
	prev, existed := db.users[id]
	onRollback(ctx, func() {
		if existed {
			db.users[id] = prev
		} else {
			delete(db.users, id)
		}
	})
}

func (db *memDB) saveWindow(ctx context.Context, id int64) {
	prev, existed := db.windows[id]
	onRollback(ctx, func() {
		if existed {
			db.windows[id] = prev
		} else {
			delete(db.windows, id)
		}
	})
}

func (db *memDB) saveAppointment(ctx context.Context, id int64) {
	prev, existed := db.appointments[id]
	onRollback(ctx, func() {
		if existed {
			db.appointments[id] = prev
		} else {
			delete(db.appointments, id)
		}
	})
}

func (db *memDB) rollback(tx *fakeTx) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for i := len(tx.undo) - 1; i >= 0; i-- {
		tx.undo[i]()
	}
}

func (tx *fakeTx) release() {
	for i := len(tx.unlocks) - 1; i >= 0; i-- {
		tx.unlocks[i]()
	}
}

func (db *memDB) addUser(u model.User) int64 {
	db.mu.Lock()
	defer db.mu.Unlock()

	if u.ID == 0 {
		u.ID = db.id()
	}
	u.IsActive = true
	db.users[u.ID] = u
	return u.ID
}

func (db *memDB) addWindow(doctorID int64, weekday int, start, end string) int64 {
	db.mu.Lock()
	defer db.mu.Unlock()

	id := db.id()
	db.windows[id] = model.AvailabilityWindow{
		ID:        id,
		DoctorID:  doctorID,
		Weekday:   weekday,
		StartTime: model.MustParseTimeOfDay(start),
		EndTime:   model.MustParseTimeOfDay(end),
	}
	return id
}

func (db *memDB) appointment(id int64) model.Appointment {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.appointments[id]
}

func (db *memDB) historyOf(appointmentID int64) []model.HistoryEntry {
	db.mu.Lock()
	defer db.mu.Unlock()

	var out []model.HistoryEntry
	for _, h := range db.history {
		if h.AppointmentID == appointmentID {
			out = append(out, h)
		}
	}
	return out
}

func (db *memDB) appointmentCount() int {
	db.mu.Lock()
	defer db.mu.Unlock()
	return len(db.appointments)
}

// fakeTransactor откатывает изменения транзакции по журналу
// и отпускает её блокировки после завершения
type fakeTransactor struct {
	db *memDB
}

func (t *fakeTransactor) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if inTx(ctx) {
		return fn(ctx)
	}

	tx := &fakeTx{held: map[dayKey]bool{}}
	defer tx.release()

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		t.db.rollback(tx)
		return err
	}
	return nil
}

type memUsers struct {
	db *memDB
}

func (r *memUsers) GetByID(_ context.Context, id int64) (*model.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	u, ok := r.db.users[id]
	if !ok || u.IsDeleted {
		return nil, nil
	}
	return &u, nil
}

func (r *memUsers) GetDoctor(_ context.Context, id int64) (*model.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	u, ok := r.db.users[id]
	if !ok || !u.IsDoctor() {
		return nil, nil
	}
	return &u, nil
}

func (r *memUsers) GetByDNI(_ context.Context, dni string) (*model.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for _, u := range r.db.users {
		if u.DNI == dni {
			return &u, nil
		}
	}
	return nil, nil
}

func (r *memUsers) CreateIfAbsent(ctx context.Context, user *model.User) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for _, u := range r.db.users {
		if u.DNI == user.DNI {
			return false, nil
		}
	}

	user.ID = r.db.id()
	r.db.saveUser(ctx, user.ID)
	user.IsActive = true
	user.CreatedAt = r.db.tick()
	user.UpdatedAt = user.CreatedAt
	r.db.users[user.ID] = *user
	return true, nil
}

func (r *memUsers) Reactivate(ctx context.Context, user *model.User) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	u, ok := r.db.users[user.ID]
	if !ok {
		return errors.New("user not found")
	}
	r.db.saveUser(ctx, u.ID)
	u.Name = user.Name
	u.IsActive = true
	u.IsDeleted = false
	r.db.users[u.ID] = u
	*user = u
	return nil
}

func (r *memUsers) List(_ context.Context, q model.UserQuery, page model.PageRequest) (*model.Page[*model.User], error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	var all []*model.User
	for _, u := range r.db.users {
		u := u
		if u.IsDeleted {
			continue
		}
		if q.Name != "" && !containsFold(u.Name, q.Name) && !containsFold(u.DNI, q.Name) {
			continue
		}
		if q.DNI != "" && !containsFold(u.DNI, q.DNI) {
			continue
		}
		if len(q.Roles) > 0 && !hasRole(q.Roles, u.Role) {
			continue
		}
		all = append(all, &u)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID > all[j].ID })

	return paginate(all, page), nil
}

func (r *memUsers) SpecialtiesByDoctor(_ context.Context, ids []int64) (map[int64][]model.Specialty, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	out := map[int64][]model.Specialty{}
	for _, id := range ids {
		if s, ok := r.db.specialties[id]; ok {
			out[id] = s
		}
	}
	return out, nil
}

type memAvailability struct {
	db *memDB
}

func (r *memAvailability) FindContaining(_ context.Context, doctorID int64, weekday int, at model.TimeOfDay) ([]*model.AvailabilityWindow, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	var out []*model.AvailabilityWindow
	for _, w := range r.db.windows {
		w := w
		if w.DoctorID == doctorID && w.Weekday == weekday && !w.IsDeleted && w.Contains(at) {
			out = append(out, &w)
		}
	}
	return out, nil
}

func (r *memAvailability) ListByDoctor(_ context.Context, doctorID int64) ([]*model.AvailabilityWindow, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	var out []*model.AvailabilityWindow
	for _, w := range r.db.windows {
		w := w
		if w.DoctorID == doctorID && !w.IsDeleted {
			out = append(out, &w)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Weekday != out[j].Weekday {
			return out[i].Weekday < out[j].Weekday
		}
		return out[i].StartTime < out[j].StartTime
	})
	return out, nil
}

// Sync повторяет сверку репозитория: точное совпадение ключа,
// восстановление удалённых, вставка новых, удаление лишних
func (r *memAvailability) Sync(ctx context.Context, doctorID int64, incoming []model.WindowSpec) (*model.SyncResult, error) {
	if !inTx(ctx) {
		return nil, errors.New("sync outside transaction")
	}

	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	result := &model.SyncResult{}
	wanted := map[model.WindowSpec]bool{}
	for _, spec := range incoming {
		if wanted[spec] {
			continue
		}
		wanted[spec] = true

		var deleted *model.AvailabilityWindow
		active := false
		for _, w := range r.db.windows {
			w := w
			if w.DoctorID != doctorID || w.Key() != spec {
				continue
			}
			if !w.IsDeleted {
				active = true
			} else if deleted == nil || w.ID < deleted.ID {
				deleted = &w
			}
		}

		switch {
		case active:
		case deleted != nil:
			r.db.saveWindow(ctx, deleted.ID)
			deleted.IsDeleted = false
			r.db.windows[deleted.ID] = *deleted
			result.Reactivated++
		default:
			id := r.db.id()
			r.db.saveWindow(ctx, id)
			r.db.windows[id] = model.AvailabilityWindow{
				ID: id, DoctorID: doctorID, Weekday: spec.Weekday, StartTime: spec.StartTime, EndTime: spec.EndTime,
			}
			result.Inserted++
		}
	}

	for id, w := range r.db.windows {
		if w.DoctorID == doctorID && !w.IsDeleted && !wanted[w.Key()] {
			r.db.saveWindow(ctx, id)
			w.IsDeleted = true
			r.db.windows[id] = w
			result.Deleted++
		}
	}

	return result, nil
}

func (r *memAvailability) FindDoctorsCovering(_ context.Context, weekday int, start, end model.TimeOfDay) ([]*model.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	seen := map[int64]bool{}
	var out []*model.User
	for _, w := range r.db.windows {
		if w.IsDeleted || w.Weekday != weekday || !w.Covers(start, end) || seen[w.DoctorID] {
			continue
		}
		u, ok := r.db.users[w.DoctorID]
		if !ok || !u.IsDoctor() {
			continue
		}
		seen[u.ID] = true
		out = append(out, &u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

type memAppointments struct {
	db *memDB
}

// withNames заполняет имена как JOIN в репозитории; вызывать под db.mu
func (r *memAppointments) withNames(a model.Appointment) *model.Appointment {
	a.PatientName = r.db.users[a.PatientID].Name
	a.DoctorName = r.db.users[a.DoctorID].Name
	return &a
}

func (r *memAppointments) Create(ctx context.Context, a *model.Appointment) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	a.ID = r.db.id()
	r.db.saveAppointment(ctx, a.ID)
	a.CreatedAt = r.db.tick()
	a.UpdatedAt = a.CreatedAt
	r.db.appointments[a.ID] = *a
	return nil
}

func (r *memAppointments) AddHistory(ctx context.Context, entry *model.HistoryEntry) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if r.db.failHistory != nil {
		return r.db.failHistory
	}

	entry.ID = r.db.id()
	entry.CreatedAt = r.db.tick()
	r.db.history = append(r.db.history, *entry)

	id := entry.ID
	onRollback(ctx, func() {
		for i, h := range r.db.history {
			if h.ID == id {
				r.db.history = append(r.db.history[:i], r.db.history[i+1:]...)
				return
			}
		}
	})
	return nil
}

func (r *memAppointments) GetByID(_ context.Context, id int64) (*model.Appointment, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	a, ok := r.db.appointments[id]
	if !ok || a.IsDeleted {
		return nil, nil
	}
	return r.withNames(a), nil
}

func (r *memAppointments) GetForUpdate(ctx context.Context, id int64) (*model.Appointment, error) {
	if !inTx(ctx) {
		return nil, errors.New("select for update outside transaction")
	}
	return r.GetByID(ctx, id)
}

func (r *memAppointments) History(_ context.Context, appointmentID int64) ([]*model.HistoryEntry, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	var out []*model.HistoryEntry
	for _, h := range r.db.history {
		h := h
		if h.AppointmentID == appointmentID {
			h.ChangedByName = r.db.users[h.ChangedBy].Name
			out = append(out, &h)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// LockDoctorDay держит блокировку (врач, дата) до конца транзакции,
// повторный захват той же транзакцией не блокирует
func (r *memAppointments) LockDoctorDay(ctx context.Context, doctorID int64, date time.Time) error {
	tx := txOf(ctx)
	if tx == nil {
		return errors.New("lock doctor day: no transaction in context")
	}

	key := dayKey{doctorID: doctorID, date: model.FormatDate(date)}
	if !tx.held[key] {
		m := r.db.dayLock(key)
		m.Lock()
		tx.held[key] = true
		tx.unlocks = append(tx.unlocks, m.Unlock)
	}

	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.dayLocks++
	return nil
}

func (r *memAppointments) ListBookedForDoctorDay(_ context.Context, doctorID int64, date time.Time) ([]*model.Appointment, error) {
	if hook := r.db.beforeBookedRead; hook != nil {
		hook()
	}

	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	var out []*model.Appointment
	for _, a := range r.db.appointments {
		if a.DoctorID == doctorID && a.Date.Equal(date) && a.IsBooked() {
			out = append(out, r.withNames(a))
		}
	}
	return out, nil
}

func (r *memAppointments) update(ctx context.Context, id int64, fn func(a *model.Appointment)) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	a, ok := r.db.appointments[id]
	if !ok || a.IsDeleted {
		return errors.New("appointment not found")
	}
	r.db.saveAppointment(ctx, id)
	fn(&a)
	a.UpdatedAt = r.db.tick()
	r.db.appointments[id] = a
	return nil
}

func (r *memAppointments) UpdateStatus(ctx context.Context, id int64, status model.AppointmentStatus) error {
	return r.update(ctx, id, func(a *model.Appointment) { a.Status = status })
}

func (r *memAppointments) Complete(ctx context.Context, id int64, diagnosis string) error {
	return r.update(ctx, id, func(a *model.Appointment) {
		a.Status = model.StatusCompleted
		a.Diagnosis = diagnosis
	})
}

func (r *memAppointments) Reschedule(ctx context.Context, id, doctorID int64, date time.Time, at model.TimeOfDay) error {
	return r.update(ctx, id, func(a *model.Appointment) {
		a.DoctorID = doctorID
		a.Date = date
		a.Time = at
		a.Status = model.StatusRescheduled
	})
}

func (r *memAppointments) List(_ context.Context, q model.AppointmentQuery, page model.PageRequest) (*model.Page[*model.Appointment], error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	var all []*model.Appointment
	for _, a := range r.db.appointments {
		a := r.withNames(a)
		switch {
		case a.IsDeleted:
		case q.Status != "" && a.Status != q.Status:
		case q.DoctorName != "" && !containsFold(a.DoctorName, q.DoctorName):
		case q.Date != nil && !a.Date.Equal(*q.Date):
		case q.Time != nil && a.Time != *q.Time:
		case q.DoctorID != nil && a.DoctorID != *q.DoctorID:
		case q.PatientID != nil && a.PatientID != *q.PatientID:
		default:
			all = append(all, a)
		}
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].Date.Equal(all[j].Date) {
			return all[i].Date.After(all[j].Date)
		}
		if all[i].Time != all[j].Time {
			return all[i].Time > all[j].Time
		}
		return all[i].ID > all[j].ID
	})

	return paginate(all, page), nil
}

func paginate[T any](all []T, req model.PageRequest) *model.Page[T] {
	req = req.Normalize()
	from := req.Offset()
	if from > len(all) {
		from = len(all)
	}
	to := from + req.Limit
	if to > len(all) {
		to = len(all)
	}
	return model.NewPage(all[from:to], len(all), req)
}

// rendezvous пропускает участников, когда соберутся все n или истечёт timeout
type rendezvous struct {
	mu      sync.Mutex
	n       int
	count   int
	all     chan struct{}
	timeout time.Duration
}

func newRendezvous(n int, timeout time.Duration) *rendezvous {
	return &rendezvous{n: n, all: make(chan struct{}), timeout: timeout}
}

func (r *rendezvous) wait() {
	r.mu.Lock()
	r.count++
	if r.count == r.n {
		close(r.all)
	}
	r.mu.Unlock()

	select {
	case <-r.all:
	case <-time.After(r.timeout):
	}
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

func hasRole(roles []model.Role, role model.Role) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}

// mockNotifier двойник Notifier на testify/mock
type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) Notify(ctx context.Context, event notify.Event) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}
