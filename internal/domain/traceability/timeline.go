// Package traceability arma la línea de tiempo unificada de un caso.
package traceability

import "github.com/jhoicas/kitquirurgico-api/internal/domain/entity"

// Merge combina dos flujos ordenados por timestamp en uno solo (estable: a igual instante
// gana el menor Seq).
func Merge(a, b []*entity.TraceabilityEvent) []*entity.TraceabilityEvent {
	out := make([]*entity.TraceabilityEvent, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		if before(a[i], b[j]) {
			out = append(out, a[i])
			i++
		} else {
			out = append(out, b[j])
			j++
		}
	}
	out = append(out, a[i:]...)
	return append(out, b[j:]...)
}

func before(x, y *entity.TraceabilityEvent) bool {
	if x.CreatedAt.Equal(y.CreatedAt) {
		return x.Seq <= y.Seq
	}
	return x.CreatedAt.Before(y.CreatedAt)
}
