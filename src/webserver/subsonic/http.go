package subsonic

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
)

var errMissingParameter = errors.New("required parameter is missing")

// requireParam returns the value of a parameter which must be present.
func requireParam(req *http.Request, name string) (string, error) {
	val := req.Form.Get(name)
	if val == "" {
		return "", fmt.Errorf("%w: %s", errMissingParameter, name)
	}
	return val, nil
}

// parseIntOrDefault parses `s` as a base 10 int and on error returns def.
func parseIntOrDefault(s string, def int) int {
	val, err := strconv.ParseInt(s, 10, 32)
	if err != nil {
		return def
	}
	return int(val)
}

// pageArgs reads the `<prefix>Count` and `<prefix>Offset` style paging
// parameters. Count is clamped to [0, max].
func pageArgs(req *http.Request, countName, offsetName string, def, max int) (count, offset int) {
	count = parseIntOrDefault(req.Form.Get(countName), def)
	count = min(count, max)
	if count < 0 {
		count = def
	}

	offset = parseIntOrDefault(req.Form.Get(offsetName), 0)
	if offset < 0 {
		offset = 0
	}

	return count, offset
}

// parseIDs parses every value of the parameter `name` as an API ID.
func parseIDs(req *http.Request, name string) ([]int64, error) {
	var ids []int64
	for _, idString := range req.Form[name] {
		id, err := parseID(idString)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
