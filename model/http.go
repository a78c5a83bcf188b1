package model

import "github.com/jsphweid/songreplay/frac"

// PlayRequestBody starts playback. Without Start8n playback resumes where it
// was stopped or seeked to.
type PlayRequestBody struct {
	Start8n          *frac.Frac `json:"start8n,omitempty"`
	AddDrumBeat      bool       `json:"add_drum_beat"`
	PadLeft          bool       `json:"pad_left"`
	NumBeatDivisions int        `json:"num_beat_divisions"`
}

type SeekRequestBody struct {
	Time8n frac.Frac `json:"time8n"`
}

type PositionResponse struct {
	Title     string     `json:"title"`
	IsPlaying bool       `json:"is_playing"`
	Time8n    *frac.Frac `json:"time8n"`
	// ResumeFrom is where the next play without a start begins.
	ResumeFrom frac.Frac `json:"resume_from"`
	Start8n    frac.Frac `json:"start8n"`
	End8n      frac.Frac `json:"end8n"`
}

type ErrorResponse struct {
	Error string `json:"detail"`
}
