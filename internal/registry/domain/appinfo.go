package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// AppInfo records which installed package an artifact came from.
// It is composed once per package event and stored verbatim with every
// artifact registered from that event.
type AppInfo struct {
	AppID      string
	ResType    string
	ResVersion string
	IsRPK      bool // provenance flag: registered from a resource package
}

// appInfoJSON is the serialized form. Field order is the wire order.
type appInfoJSON struct {
	IsRPK      string `json:"is_rpk"`
	AppID      string `json:"app_id"`
	ResType    string `json:"res_type"`
	ResVersion string `json:"res_version"`
}

// ComposeAppInfo builds the provenance blob for a resource package.
func ComposeAppInfo(appID, resType, resVersion string) AppInfo {
	return AppInfo{
		AppID:      appID,
		ResType:    resType,
		ResVersion: resVersion,
		IsRPK:      true,
	}
}

// IsZero reports whether no provenance is recorded.
func (a AppInfo) IsZero() bool {
	return a == AppInfo{}
}

// Marshal renders the pretty-printed JSON stored in the registry.
// A zero AppInfo marshals to the empty string.
func (a AppInfo) Marshal() (string, error) {
	if a.IsZero() {
		return "", nil
	}
	flag := "F"
	if a.IsRPK {
		flag = "T"
	}
	data, err := json.MarshalIndent(appInfoJSON{
		IsRPK:      flag,
		AppID:      a.AppID,
		ResType:    a.ResType,
		ResVersion: a.ResVersion,
	}, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal app info: %w", err)
	}
	return string(data), nil
}

// String returns the serialized form, or "" if it cannot be produced.
func (a AppInfo) String() string {
	s, _ := a.Marshal()
	return s
}

// ParseAppInfo decodes a stored app-info blob.
// The empty string decodes to a zero AppInfo: artifacts registered outside a
// package event carry no provenance.
func ParseAppInfo(s string) (AppInfo, error) {
	if strings.TrimSpace(s) == "" {
		return AppInfo{}, nil
	}
	var raw appInfoJSON
	if err := json.Unmarshal([]byte(s), &raw); err != nil {
		return AppInfo{}, fmt.Errorf("parse app info: %w", err)
	}
	return AppInfo{
		AppID:      raw.AppID,
		ResType:    raw.ResType,
		ResVersion: raw.ResVersion,
		IsRPK:      strings.EqualFold(raw.IsRPK, "T"),
	}, nil
}
