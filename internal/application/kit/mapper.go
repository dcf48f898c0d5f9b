package kit

import (
	"github.com/jhoicas/kitquirurgico-api/internal/application/dto"
	"github.com/jhoicas/kitquirurgico-api/internal/domain/entity"
	kitrules "github.com/jhoicas/kitquirurgico-api/internal/domain/kit"
)

func toKitResponse(k *entity.Kit, lines []*entity.KitProductLine) *dto.KitResponse {
	resp := &dto.KitResponse{
		ID:               k.ID,
		Code:             k.Code,
		CaseID:           k.CaseID,
		CaseNumber:       k.CaseNumber,
		Status:           string(k.Status),
		QRToken:          k.QRToken,
		SourceLocationID: k.SourceLocationID,
		LocationID:       k.LocationID,
		CourierID:        k.CourierID,
		Notes:            k.Notes,
		CancelReason:     k.CancelReason,
		Phases:           []dto.PhaseResponse{},
		NextStates:       []string{},
		CreatedAt:        k.CreatedAt,
		UpdatedAt:        k.UpdatedAt,
	}
	for _, s := range entity.KitStatuses {
		p := k.Phase(s)
		if !p.Reached() {
			continue
		}
		resp.Phases = append(resp.Phases, dto.PhaseResponse{State: string(s), At: *p.At, Actor: p.Actor})
	}
	for _, s := range kitrules.NextStates(k.Status) {
		resp.NextStates = append(resp.NextStates, string(s))
	}
	if lines != nil {
		resp.Lines = make([]dto.KitLineResponse, 0, len(lines))
		for _, l := range lines {
			resp.Lines = append(resp.Lines, toLineResponse(l))
		}
	}
	return resp
}

func toLineResponse(l *entity.KitProductLine) dto.KitLineResponse {
	return dto.KitLineResponse{
		ID:         l.ID,
		ProductID:  l.ProductID,
		Requested:  l.Requested,
		Prepared:   l.Prepared,
		Sent:       l.Sent,
		Received:   l.Received,
		Used:       l.Used,
		Returned:   l.Returned,
		Disposable: l.Disposable,
		Lot:        l.Lot,
		ExpiresAt:  l.ExpiresAt,
		Notes:      l.Notes,
	}
}
