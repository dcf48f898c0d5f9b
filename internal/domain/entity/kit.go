package entity

import "time"

// KitStatus estado del ciclo de vida de un kit quirúrgico.
type KitStatus string

// Estados del kit.
const (
	KitSolicitado KitStatus = "solicitado"
	KitPreparando KitStatus = "preparando"
	KitListoEnvio KitStatus = "listo_envio"
	KitEnTransito KitStatus = "en_transito"
	KitEntregado  KitStatus = "entregado"
	KitEnUso      KitStatus = "en_uso"
	KitDevuelto   KitStatus = "devuelto"
	KitEnLimpieza KitStatus = "en_limpieza"
	KitFinalizado KitStatus = "finalizado"
	KitCancelado  KitStatus = "cancelado"
)

// KitStatuses lista todos los estados en orden de ciclo de vida.
var KitStatuses = []KitStatus{
	KitSolicitado, KitPreparando, KitListoEnvio, KitEnTransito, KitEntregado,
	KitEnUso, KitDevuelto, KitEnLimpieza, KitFinalizado, KitCancelado,
}

// Valid indica si el valor es un estado conocido.
func (s KitStatus) Valid() bool {
	for _, k := range KitStatuses {
		if k == s {
			return true
		}
	}
	return false
}

// Terminal indica si el estado no admite más mutaciones.
func (s KitStatus) Terminal() bool {
	return s == KitFinalizado || s == KitCancelado
}

// PhaseStamp momento y responsable de una fase del kit.
type PhaseStamp struct {
	At    *time.Time
	Actor string
}

// Reached indica si la fase ya se registró.
func (p PhaseStamp) Reached() bool { return p.At != nil }

// Kit representa el kit quirúrgico asociado a una cirugía (caso).
// Lo muta exclusivamente el registro de kits a través de transiciones.
type Kit struct {
	ID               string
	Code             string // código legible KIT-YYYYMMDD-XXXXXX
	CaseID           string // cirugía padre
	CaseNumber       string
	Status           KitStatus
	QRToken          string // token portador emitido en el despacho
	SourceLocationID string // bodega desde donde se reserva el stock
	LocationID       string // ubicación física actual
	CourierID        string
	Notes            string
	CancelReason     string
	Phases           map[KitStatus]PhaseStamp
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Phase devuelve el sello de la fase indicada (vacío si no se alcanzó).
func (k *Kit) Phase(s KitStatus) PhaseStamp {
	if k.Phases == nil {
		return PhaseStamp{}
	}
	return k.Phases[s]
}

// Stamp registra la fase con su actor.
func (k *Kit) Stamp(s KitStatus, actor string, at time.Time) {
	if k.Phases == nil {
		k.Phases = make(map[KitStatus]PhaseStamp)
	}
	t := at
	k.Phases[s] = PhaseStamp{At: &t, Actor: actor}
}

// Actors devuelve los responsables distintos que intervinieron en el kit.
func (k *Kit) Actors() []string {
	seen := make(map[string]bool)
	var out []string
	for _, s := range KitStatuses {
		p := k.Phase(s)
		if p.Actor == "" || seen[p.Actor] {
			continue
		}
		seen[p.Actor] = true
		out = append(out, p.Actor)
	}
	return out
}
