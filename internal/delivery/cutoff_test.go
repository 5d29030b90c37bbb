package delivery

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(y int, m time.Month, d, h, min, s int) time.Time {
	return time.Date(y, m, d, h, min, s, 0, time.UTC)
}

func TestFirstDeliveryOffset(t *testing.T) {
	assert.Equal(t, 1, FirstDeliveryOffset(at(2025, time.July, 16, 0, 0, 0), 18))
	assert.Equal(t, 1, FirstDeliveryOffset(at(2025, time.July, 16, 17, 59, 59), 18))
	assert.Equal(t, 2, FirstDeliveryOffset(at(2025, time.July, 16, 18, 0, 0), 18))
	assert.Equal(t, 2, FirstDeliveryOffset(at(2025, time.July, 16, 23, 59, 59), 18))
}

func TestResolveFirstDelivery_Reactivation(t *testing.T) {
	tests := []struct {
		name  string
		event time.Time
		want  time.Time
	}{
		{"afternoon ships next day", at(2025, time.July, 16, 14, 0, 0), at(2025, time.July, 17, 8, 0, 0)},
		{"evening ships day after", at(2025, time.July, 16, 20, 0, 0), at(2025, time.July, 18, 8, 0, 0)},
		{"saturday lands on sunday and moves to monday", at(2025, time.July, 19, 14, 0, 0), at(2025, time.July, 21, 8, 0, 0)},
		{"friday evening lands on sunday and moves to monday", at(2025, time.July, 18, 19, 0, 0), at(2025, time.July, 21, 8, 0, 0)},
		{"friday afternoon keeps saturday", at(2025, time.July, 18, 9, 0, 0), at(2025, time.July, 19, 8, 0, 0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveFirstDelivery(tt.event, DefaultCutoffHour))
		})
	}
}

func TestResolveFirstDelivery_CutoffBoundary(t *testing.T) {
	atCutoff := ResolveFirstDelivery(at(2025, time.July, 16, 18, 0, 0), 18)
	lateNight := ResolveFirstDelivery(at(2025, time.July, 16, 23, 59, 59), 18)
	beforeCutoff := ResolveFirstDelivery(at(2025, time.July, 16, 17, 59, 59), 18)

	assert.Equal(t, lateNight, atCutoff)
	assert.Equal(t, beforeCutoff.AddDate(0, 0, 1), atCutoff)
}

func TestCutoffRule_UsesEventLocation(t *testing.T) {
	loc := time.FixedZone("IST", 5*3600+1800)
	// 13:00 UTC is 18:30 in IST, past the cutoff there.
	event := time.Date(2025, time.July, 16, 18, 30, 0, 0, loc)

	got := DefaultCutoff.FirstDelivery(event)
	assert.Equal(t, time.Date(2025, time.July, 18, 8, 0, 0, 0, loc), got)
}

func TestCutoffRule_CustomDeliveryHour(t *testing.T) {
	rule := CutoffRule{Hour: 12, DeliveryHour: 6, Policy: PolicyWeekdayOnly}
	got := rule.FirstDelivery(at(2025, time.July, 18, 13, 0, 0))
	assert.Equal(t, at(2025, time.July, 21, 6, 0, 0), got)
}

func TestCutoffRule_Validate(t *testing.T) {
	require.NoError(t, DefaultCutoff.Validate())

	err := CutoffRule{Hour: 24, DeliveryHour: 8}.Validate()
	require.ErrorIs(t, err, ErrValidation)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "cutoff_hour", verr.Field)

	err = CutoffRule{Hour: 18, DeliveryHour: -1}.Validate()
	require.ErrorIs(t, err, ErrValidation)
}
