package cache

import (
	"encoding/json"
	"fmt"

	"github.com/mikey/site-categorizer/internal/core"
)

func encodeResult(result *core.AnalysisResult) (string, error) {
	data, err := json.Marshal(result)
	if err != nil {
		return "", fmt.Errorf("failed to encode cached result: %w", err)
	}
	return string(data), nil
}

func decodeResult(data string) (*core.AnalysisResult, error) {
	var result core.AnalysisResult
	if err := json.Unmarshal([]byte(data), &result); err != nil {
		return nil, fmt.Errorf("failed to decode cached result: %w", err)
	}
	return &result, nil
}
