package main

import (
	"encoding/json"
	"fmt"

	"github.com/recordevolution/wampcore/wamp"
)

// parseCallArgs decodes an optional trailing JSON array literal into a
// wamp.List, e.g. `["foo", 42]`. An empty string yields a nil list.
func parseCallArgs(raw string) (wamp.List, error) {
	if raw == "" {
		return nil, nil
	}
	var list wamp.List
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		return nil, fmt.Errorf("decoding json-args as an array: %w", err)
	}
	return list, nil
}

// parseCallKwArgs decodes an optional trailing JSON object literal into a
// wamp.Dict, e.g. `{"key": "value"}`. An empty string yields a nil dict.
func parseCallKwArgs(raw string) (wamp.Dict, error) {
	if raw == "" {
		return nil, nil
	}
	var dict wamp.Dict
	if err := json.Unmarshal([]byte(raw), &dict); err != nil {
		return nil, fmt.Errorf("decoding json-kwargs as an object: %w", err)
	}
	return dict, nil
}
