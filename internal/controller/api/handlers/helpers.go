package handlers

import (
	"errors"
	"strconv"
	"strings"
)

func parseUserID(raw string) (int32, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 32)
	if err != nil || id <= 0 {
		return 0, errors.New("invalid user id")
	}
	return int32(id), nil
}
