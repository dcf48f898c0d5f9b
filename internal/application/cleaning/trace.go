package cleaning

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/kitquirurgico-api/internal/application/ports"
	"github.com/jhoicas/kitquirurgico-api/internal/domain/entity"
)

// appendEvent registra el cambio del ítem en la línea de tiempo de su kit.
func appendEvent(
	ctx context.Context,
	repos ports.Repos,
	item *entity.CleaningItem,
	actor string,
	from, to entity.CleaningStatus,
	at time.Time,
	meta map[string]any,
) error {
	raw, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("serializar metadata de limpieza: %w", err)
	}
	return repos.Trace.Append(ctx, &entity.TraceabilityEvent{
		ID:         uuid.New().String(),
		EntityType: entity.TraceEntityKit,
		EntityID:   item.KitID,
		Action:     "limpieza_" + string(to),
		FromState:  string(from),
		ToState:    string(to),
		Actor:      actor,
		Metadata:   raw,
		CreatedAt:  at,
	})
}
