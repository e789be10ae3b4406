package gateway

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	custom_error "toolroom/pkg/errors"
)

type errorBody struct {
	Detail  json.RawMessage `json:"detail"`
	Error   string          `json:"error"`
	Message string          `json:"message"`
}

// validation failures arrive as a list of {loc, msg} objects
type detailItem struct {
	Msg string `json:"msg"`
}

func mapStatus(status int, body []byte) error {
	apiErr := &custom_error.APIError{Status: status, Message: decodeMessage(status, body)}

	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return &custom_error.AuthorizationError{Message: apiErr.Message, Cause: apiErr}
	case http.StatusConflict:
		return &custom_error.StateError{Message: apiErr.Message, Cause: apiErr}
	default:
		return apiErr
	}
}

func decodeMessage(status int, body []byte) string {
	fallback := fmt.Sprintf("request failed with status %d", status)

	var parsed errorBody
	if err := json.Unmarshal(body, &parsed); err != nil {
		return fallback
	}

	if len(parsed.Detail) > 0 {
		var text string
		if err := json.Unmarshal(parsed.Detail, &text); err == nil && text != "" {
			return text
		}
		var items []detailItem
		if err := json.Unmarshal(parsed.Detail, &items); err == nil {
			msgs := make([]string, 0, len(items))
			for _, item := range items {
				if item.Msg != "" {
					msgs = append(msgs, item.Msg)
				}
			}
			if len(msgs) > 0 {
				return strings.Join(msgs, "; ")
			}
		}
	}
	if parsed.Error != "" {
		return parsed.Error
	}
	if parsed.Message != "" {
		return parsed.Message
	}
	return fallback
}
