package indicators

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seriesBars(closes ...float64) []Bar {
	bars := make([]Bar, len(closes))
	for i, c := range closes {
		bars[i] = Bar{Open: c, High: c + 1, Low: c - 1, Close: c, Volume: 1000 * float64(i+1)}
	}
	return bars
}

func TestSMA(t *testing.T) {
	tests := []struct {
		name    string
		values  []float64
		period  int
		want    float64
		wantErr error
	}{
		{"last three", []float64{1, 2, 3, 4, 5}, 3, 4, nil},
		{"exact length", []float64{2, 4}, 2, 3, nil},
		{"too short", []float64{1, 2}, 3, 0, ErrInsufficientData},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SMA(tt.values, tt.period)
			if tt.wantErr != nil {
				assert.True(t, errors.Is(err, tt.wantErr))
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}

	_, err := SMA([]float64{1}, 0)
	assert.Error(t, err)
}

func TestRSI(t *testing.T) {
	rising := make([]float64, 20)
	falling := make([]float64, 20)
	for i := range rising {
		rising[i] = float64(100 + i)
		falling[i] = float64(100 - i)
	}

	got, err := RSI(rising, 14)
	require.NoError(t, err)
	assert.Equal(t, 100.0, got)

	got, err = RSI(falling, 14)
	require.NoError(t, err)
	assert.InDelta(t, 0, got, 1e-9)

	// 교대로 +1/-1 → 50 근처
	alternating := make([]float64, 30)
	for i := range alternating {
		alternating[i] = 100 + float64(i%2)
	}
	got, err = RSI(alternating, 14)
	require.NoError(t, err)
	assert.InDelta(t, 50, got, 5)
	assert.GreaterOrEqual(t, got, 0.0)
	assert.LessOrEqual(t, got, 100.0)

	_, err = RSI(rising[:14], 14)
	assert.True(t, errors.Is(err, ErrInsufficientData))
}

func TestRange52w(t *testing.T) {
	closes := make([]float64, 300)
	for i := range closes {
		closes[i] = float64(i)
	}
	// 가장 오래된 48개는 252 구간 밖
	high, low, err := Range52w(seriesBars(closes...))
	require.NoError(t, err)
	assert.Equal(t, 300.0, high)
	assert.Equal(t, 47.0, low)

	_, _, err = Range52w(nil)
	assert.Error(t, err)
}

func TestAvgVolume(t *testing.T) {
	bars := seriesBars(1, 2, 3, 4)
	got, err := AvgVolume(bars, 2)
	require.NoError(t, err)
	assert.Equal(t, 3500.0, got)

	got, err = AvgVolume(bars, 20)
	require.NoError(t, err)
	assert.Equal(t, 2500.0, got)

	_, err = AvgVolume(nil, 20)
	assert.Error(t, err)
}

func TestCloses(t *testing.T) {
	assert.Equal(t, []float64{1, 2}, Closes(seriesBars(1, 2)))
}
