package conv

import (
	"fmt"
	"math"
)

// Int64ToInt32 converts int64 to int32 safely.
func Int64ToInt32(v int64) (int32, error) {
	if v < math.MinInt32 {
		return 0, fmt.Errorf("integer overflow: %d cannot be converted to int32 (too small)", v)
	}
	if v > math.MaxInt32 {
		return 0, fmt.Errorf("integer overflow: %d cannot be converted to int32 (too large)", v)
	}
	return int32(v), nil
}

// IntToInt32 converts int to int32 safely.
func IntToInt32(v int) (int32, error) {
	return Int64ToInt32(int64(v))
}

// Int64ToUint64 converts int64 to uint64 safely.
func Int64ToUint64(v int64) (uint64, error) {
	if v < 0 {
		return 0, fmt.Errorf("integer overflow: %d cannot be converted to uint64 (negative)", v)
	}
	return uint64(v), nil
}

// Int64ToInt converts int64 to int safely.
func Int64ToInt(v int64) (int, error) {
	if v > math.MaxInt {
		return 0, fmt.Errorf("integer overflow: %d cannot be converted to int (too large)", v)
	}
	return int(v), nil
}
