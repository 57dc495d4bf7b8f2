package rpc

import (
	"encoding/json"
	"errors"

	"tokenrank/internal/model"
)

var errMissingParams = errors.New("missing params")

// parseOrderSubscribeParams accepts either a bare string or `{"order_type": "..."}`,
// matching the source's permissive params decoding.
func parseOrderSubscribeParams(raw json.RawMessage) (model.OrderType, error) {
	s, err := stringOrField(raw, "order_type")
	if err != nil {
		return "", err
	}
	return model.ParseOrderType(s)
}

type tokenSubscribeParams struct {
	TokenID string `json:"token_id"`
	Chart   string `json:"chart"`
}

func parseTokenSubscribeParams(raw json.RawMessage) (string, model.ChartInterval, error) {
	if len(raw) == 0 {
		return "", "", errMissingParams
	}
	var p tokenSubscribeParams
	if err := json.Unmarshal(raw, &p); err != nil {
		return "", "", err
	}
	if p.TokenID == "" {
		return "", "", errors.New("missing token_id")
	}
	if !model.ValidChartInterval(p.Chart) {
		return "", "", errors.New("invalid chart interval")
	}
	return p.TokenID, model.ChartInterval(p.Chart), nil
}

// stringOrField decodes raw as either a bare JSON string or an object
// carrying field as a string.
func stringOrField(raw json.RawMessage, field string) (string, error) {
	if len(raw) == 0 {
		return "", errMissingParams
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, nil
	}
	var obj map[string]string
	if err := json.Unmarshal(raw, &obj); err != nil {
		return "", err
	}
	v, ok := obj[field]
	if !ok || v == "" {
		return "", errMissingParams
	}
	return v, nil
}
