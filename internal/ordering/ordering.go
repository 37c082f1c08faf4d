// Package ordering меняет порядок моментов внутри истории.
package ordering

// Side сторона цели, на которую бросили перетаскиваемый элемент.
type Side string

const (
	SideLeft  Side = "left"
	SideRight Side = "right"
)

// Reorder переносит dragged рядом с target.
// Сначала dragged удаляется, затем индекс target ищется заново в укороченной
// последовательности, и только после этого выполняется вставка.
// Если dragged == target или какого-то id нет, возвращается исходная последовательность.
func Reorder(ids []string, dragged, target string, side Side) []string {
	if dragged == target {
		return ids
	}
	if indexOf(ids, dragged) < 0 || indexOf(ids, target) < 0 {
		return ids
	}

	rest := make([]string, 0, len(ids))
	for _, id := range ids {
		if id != dragged {
			rest = append(rest, id)
		}
	}

	at := indexOf(rest, target)
	if side == SideRight {
		at++
	}

	out := make([]string, 0, len(ids))
	out = append(out, rest[:at]...)
	out = append(out, dragged)
	out = append(out, rest[at:]...)
	return out
}

// MergeAdd добавляет id в конец, сохраняя порядок и пропуская уже имеющиеся.
func MergeAdd(existing, added []string) []string {
	seen := make(map[string]struct{}, len(existing)+len(added))
	out := make([]string, 0, len(existing)+len(added))
	for _, list := range [][]string{existing, added} {
		for _, id := range list {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	return out
}

// Remove убирает из последовательности все вхождения указанных id.
func Remove(ids []string, removed ...string) []string {
	drop := make(map[string]struct{}, len(removed))
	for _, id := range removed {
		drop[id] = struct{}{}
	}
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := drop[id]; !ok {
			out = append(out, id)
		}
	}
	return out
}

func indexOf(ids []string, id string) int {
	for i, v := range ids {
		if v == id {
			return i
		}
	}
	return -1
}
