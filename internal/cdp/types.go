// Package cdp implements the slice of the Chrome DevTools Protocol this
// library needs: one WebSocket control channel per browser, with JSON
// request/response correlation and event subscription, and a page-bound
// session exposing navigate, evaluate, network observation, and printToPDF.
package cdp

import (
	"encoding/json"
	"fmt"
)

// message is the wire envelope for both directions of the protocol.
// Commands and responses carry an id; events carry only a method.
type message struct {
	ID        int64           `json:"id,omitempty"`
	SessionID string          `json:"sessionId,omitempty"`
	Method    string          `json:"method,omitempty"`
	Params    json.RawMessage `json:"params,omitempty"`
	Result    json.RawMessage `json:"result,omitempty"`
	Error     *wireError      `json:"error,omitempty"`
}

// wireError is the protocol-level error attached to a failed command.
type wireError struct {
	Code    int64  `json:"code"`
	Message string `json:"message"`
	Data    string `json:"data,omitempty"`
}

func (e *wireError) Error() string {
	if e.Data != "" {
		return fmt.Sprintf("%s (%d): %s", e.Message, e.Code, e.Data)
	}
	return fmt.Sprintf("%s (%d)", e.Message, e.Code)
}

// RemoteObject mirrors Runtime.RemoteObject for by-value evaluation results.
type RemoteObject struct {
	Type        string          `json:"type"`
	Subtype     string          `json:"subtype,omitempty"`
	Value       json.RawMessage `json:"value,omitempty"`
	Description string          `json:"description,omitempty"`
}

// Truthy interprets the object under JavaScript truthiness rules: null,
// undefined, false, numeric zero, and the empty string are falsy; every
// other value, objects included, is truthy.
func (o RemoteObject) Truthy() bool {
	switch o.Type {
	case "undefined":
		return false
	case "object":
		return o.Subtype != "null"
	case "boolean":
		var b bool
		if err := json.Unmarshal(o.Value, &b); err != nil {
			return false
		}
		return b
	case "number":
		var f float64
		if err := json.Unmarshal(o.Value, &f); err != nil {
			// NaN and Infinity arrive without a serializable value.
			return o.Description != "" && o.Description != "NaN"
		}
		return f != 0
	case "string":
		var s string
		if err := json.Unmarshal(o.Value, &s); err != nil {
			return false
		}
		return s != ""
	default:
		// function, symbol, bigint
		return true
	}
}

// NetworkEventKind classifies network lifecycle events.
type NetworkEventKind int

const (
	NetworkRequestStarted NetworkEventKind = iota
	NetworkRequestFinished
	NetworkRequestFailed
)

// NetworkEvent is one network lifecycle notification for the session's page.
type NetworkEvent struct {
	Kind      NetworkEventKind
	RequestID string
}

// PrintParams mirrors the Page.printToPDF parameters the renderer uses.
// Pointer fields distinguish "unset, use the browser default" from zero.
type PrintParams struct {
	Landscape           bool     `json:"landscape,omitempty"`
	DisplayHeaderFooter bool     `json:"displayHeaderFooter,omitempty"`
	PrintBackground     bool     `json:"printBackground,omitempty"`
	Scale               *float64 `json:"scale,omitempty"`
	PaperWidth          *float64 `json:"paperWidth,omitempty"`
	PaperHeight         *float64 `json:"paperHeight,omitempty"`
	MarginTop           *float64 `json:"marginTop,omitempty"`
	MarginBottom        *float64 `json:"marginBottom,omitempty"`
	MarginLeft          *float64 `json:"marginLeft,omitempty"`
	MarginRight         *float64 `json:"marginRight,omitempty"`
	PageRanges          string   `json:"pageRanges,omitempty"`
	HeaderTemplate      string   `json:"headerTemplate,omitempty"`
	FooterTemplate      string   `json:"footerTemplate,omitempty"`
	PreferCSSPageSize   bool     `json:"preferCSSPageSize,omitempty"`
}
