package events

import (
	"bytes"
	"strings"
)

type PartKind string

const (
	PartText         PartKind = "text"
	PartInlineAudio  PartKind = "inline_audio"
	PartInlineData   PartKind = "inline_data"
	PartFunctionCall PartKind = "function_call"
)

// Part is one atomic unit of a model turn.
type Part struct {
	Kind PartKind

	Text string

	MimeType string
	Data     []byte

	FunctionCall *FunctionCall
}

// FunctionCall is a single tool invocation requested by the model.
type FunctionCall struct {
	ID   string
	Name string
	Args map[string]any
}

func TextPart(text string) Part {
	return Part{Kind: PartText, Text: text}
}

// InlineDataPart builds an inline data part. Audio mime types produce
// [PartInlineAudio], anything else [PartInlineData].
func InlineDataPart(mimeType string, data []byte) Part {
	kind := PartInlineData
	if strings.HasPrefix(strings.ToLower(mimeType), "audio/") {
		kind = PartInlineAudio
	}
	return Part{Kind: kind, MimeType: mimeType, Data: data}
}

func FunctionCallPart(call FunctionCall) Part {
	return Part{Kind: PartFunctionCall, FunctionCall: &call}
}

func (p Part) IsAudio() bool        { return p.Kind == PartInlineAudio }
func (p Part) IsFunctionCall() bool { return p.Kind == PartFunctionCall && p.FunctionCall != nil }

func (p Part) clone() Part {
	cloned := p
	if p.Data != nil {
		cloned.Data = bytes.Clone(p.Data)
	}
	if p.FunctionCall != nil {
		call := p.FunctionCall.clone()
		cloned.FunctionCall = &call
	}
	return cloned
}

func (c FunctionCall) clone() FunctionCall {
	c.Args = ClonePayload(c.Args)
	return c
}

func cloneParts(parts []Part) []Part {
	if parts == nil {
		return nil
	}
	cloned := make([]Part, len(parts))
	for i, part := range parts {
		cloned[i] = part.clone()
	}
	return cloned
}
