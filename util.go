package syncengine

import (
	"strconv"
	"time"
)

func nowMillis() int64 {
	return time.Now().UnixMilli()
}

func itoa(n int64) string {
	return strconv.FormatInt(n, 10)
}
