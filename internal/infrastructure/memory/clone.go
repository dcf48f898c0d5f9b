package memory

import "github.com/jhoicas/kitquirurgico-api/internal/domain/entity"

func cloneProduct(p *entity.Product) *entity.Product {
	c := *p
	return &c
}

func cloneLocation(l *entity.Location) *entity.Location {
	c := *l
	return &c
}

func cloneKit(k *entity.Kit) *entity.Kit {
	c := *k
	c.Phases = make(map[entity.KitStatus]entity.PhaseStamp, len(k.Phases))
	for s, p := range k.Phases {
		if p.At != nil {
			at := *p.At
			p.At = &at
		}
		c.Phases[s] = p
	}
	return &c
}

func cloneLine(l *entity.KitProductLine) *entity.KitProductLine {
	c := *l
	if l.ExpiresAt != nil {
		t := *l.ExpiresAt
		c.ExpiresAt = &t
	}
	return &c
}

func cloneRecord(r *entity.InventoryRecord) *entity.InventoryRecord {
	c := *r
	return &c
}

func cloneItem(i *entity.CleaningItem) *entity.CleaningItem {
	c := *i
	return &c
}

func cloneMovement(m *entity.InventoryMovement) *entity.InventoryMovement {
	c := *m
	return &c
}

func cloneEvent(e *entity.TraceabilityEvent) *entity.TraceabilityEvent {
	c := *e
	c.Metadata = append([]byte(nil), e.Metadata...)
	return &c
}

func cloneNotification(n *entity.OutboxNotification) *entity.OutboxNotification {
	c := *n
	c.Payload = append([]byte(nil), n.Payload...)
	if n.SentAt != nil {
		t := *n.SentAt
		c.SentAt = &t
	}
	return &c
}
