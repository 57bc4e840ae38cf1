package features

import (
	"encoding/json"
	"fmt"
	"os"
)

// Calibration holds the fixed reference constants captured at training time.
// 서빙 시 재계산 금지: 배치 상대 평균을 쓰면 개별 예측이 같이 들어온
// 다른 요청들에 의존하게 됨
type Calibration struct {
	// MeanWorstIV is the training-set mean of the basket worst (max) 3M IV
	MeanWorstIV float64 `json:"mean_worst_iv"`
	// MeanRank1IV is the training-set mean of the rank-1 3M IV
	MeanRank1IV float64 `json:"mean_rank1_iv"`
}

// DefaultCalibration returns the constants the shipped model was trained with
func DefaultCalibration() Calibration {
	return Calibration{
		MeanWorstIV: 43.5,
		MeanRank1IV: 52.4,
	}
}

// LoadCalibration reads the calibration side-car artifact. A missing file
// falls back to the defaults baked in for the shipped model; a malformed
// or degenerate file is an error.
func LoadCalibration(path string) (Calibration, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultCalibration(), nil
		}
		return Calibration{}, fmt.Errorf("failed to read calibration: %w", err)
	}

	var cal Calibration
	if err := json.Unmarshal(data, &cal); err != nil {
		return Calibration{}, fmt.Errorf("failed to parse calibration: %w", err)
	}

	if cal.MeanWorstIV <= 0 || cal.MeanRank1IV <= 0 {
		return Calibration{}, fmt.Errorf("calibration constants must be positive: %+v", cal)
	}

	return cal, nil
}
