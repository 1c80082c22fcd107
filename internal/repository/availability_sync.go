package repository

import "github.com/Freeeeeet/clinic_scheduler/internal/model"

// syncPlan изменения, приводящие окна врача к входному списку
type syncPlan struct {
	Insert     []model.WindowSpec
	Reactivate []int64
	Delete     []int64
}

// planSync сравнивает текущие окна (включая удалённые) с входным списком.
// Окна совпадают только при равенстве дня недели, начала и конца.
// Активное совпадение не трогается, удалённое восстанавливается,
// отсутствующее вставляется один раз. Активные окна вне списка удаляются.
func planSync(current []*model.AvailabilityWindow, incoming []model.WindowSpec) syncPlan {
	var plan syncPlan

	byKey := make(map[model.WindowSpec][]*model.AvailabilityWindow, len(current))
	for _, w := range current {
		byKey[w.Key()] = append(byKey[w.Key()], w)
	}

	wanted := make(map[model.WindowSpec]bool, len(incoming))
	for _, spec := range incoming {
		if wanted[spec] {
			continue
		}
		wanted[spec] = true

		rows := byKey[spec]
		if len(rows) == 0 {
			plan.Insert = append(plan.Insert, spec)
			continue
		}

		if hasActive(rows) {
			continue
		}
		plan.Reactivate = append(plan.Reactivate, rows[0].ID)
	}

	for _, w := range current {
		if !w.IsDeleted && !wanted[w.Key()] {
			plan.Delete = append(plan.Delete, w.ID)
		}
	}

	return plan
}

func hasActive(rows []*model.AvailabilityWindow) bool {
	for _, w := range rows {
		if !w.IsDeleted {
			return true
		}
	}
	return false
}

// Empty сообщает что синхронизация ничего не меняет
func (p syncPlan) Empty() bool {
	return len(p.Insert) == 0 && len(p.Reactivate) == 0 && len(p.Delete) == 0
}
