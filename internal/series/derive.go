package series

import (
	"math"

	"golang-stock-indicator/internal/entity"
	"golang-stock-indicator/pkg/utils"
)

// AbnormalMovePct is the absolute daily change above which a bar is flagged abnormal.
const AbnormalMovePct = 10.0

// DeriveBarFields recomputes previous_close and the fields derived from it for an
// ascending series. The first bar keeps the upstream previous_close; every later bar
// takes its predecessor's close, so a backfill that re-sorts the series stays consistent.
func DeriveBarFields(bars []entity.Bar) []entity.Bar {
	out := make([]entity.Bar, len(bars))
	copy(out, bars)

	for i := range out {
		b := &out[i]
		if i > 0 {
			prev := out[i-1].Close
			b.PreviousClose = &prev
		}
		b.Halted = b.Volume == 0
		b.ChangeAmount, b.PctChange, b.Amplitude = nil, nil, nil
		b.Abnormal = false

		if b.PreviousClose == nil || *b.PreviousClose == 0 {
			continue
		}
		pc := *b.PreviousClose
		change := b.Close - pc
		pct := change / pc * 100
		amplitude := (b.High - b.Low) / pc * 100

		b.ChangeAmount = utils.ToPointer(utils.Round(change, 2))
		b.PctChange = utils.ToPointer(utils.Round(pct, 2))
		b.Amplitude = utils.ToPointer(utils.Round(amplitude, 2))
		b.Abnormal = math.Abs(pct) > AbnormalMovePct
	}
	return out
}
