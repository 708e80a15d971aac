package entity_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nexus-ims/nexus-api/internal/domain/entity"
)

// ──────────────────────────────────────────────────────────────────────────────
// Signos por tipo de evento
// ──────────────────────────────────────────────────────────────────────────────

func TestEventSign_TablaCompleta(t *testing.T) {
	cases := []struct {
		eventType string
		sign      int
	}{
		{entity.EventReceive, +1},
		{entity.EventPick, -1},
		{entity.EventAdjust, 0},
		{entity.EventReturn, +1},
		{entity.EventTransferOut, -1},
		{entity.EventTransferIn, +1},
		{entity.EventAssembleOut, -1},
		{entity.EventAssembleIn, +1},
		{entity.EventCycleCount, 0},
		{entity.EventShipOut, -1},
		{entity.EventReserveOut, -1},
		{entity.EventReserveIn, +1},
	}
	for _, tc := range cases {
		t.Run(tc.eventType, func(t *testing.T) {
			sign, ok := entity.EventSign(tc.eventType)
			assert.True(t, ok)
			assert.Equal(t, tc.sign, sign)
		})
	}
}

func TestEventSign_TipoDesconocido(t *testing.T) {
	_, ok := entity.EventSign("MAGIC")
	assert.False(t, ok)

	// El lookup distingue mayúsculas: los tipos siempre viajan en MAYÚSCULAS.
	_, ok = entity.EventSign("receive")
	assert.False(t, ok)
}
