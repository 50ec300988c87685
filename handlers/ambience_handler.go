package handlers

import (
	"net/http"
	"strconv"

	"studyPulseAPI/internal/ambience"
)

const (
	defaultSampleRate = 22050
	maxLengthSeconds  = 60
)

// AmbienceHandler serves procedurally generated background noise as WAV
// audio. Generation is stateless, so the handler needs no service layer.
type AmbienceHandler struct{}

func NewAmbienceHandler() *AmbienceHandler {
	return &AmbienceHandler{}
}

func (h *AmbienceHandler) GetAmbience(w http.ResponseWriter, r *http.Request) {
	kind, err := ambience.ParseKind(r.URL.Query().Get("kind"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	seconds := 10
	if raw := r.URL.Query().Get("seconds"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 || parsed > maxLengthSeconds {
			respondWithError(w, http.StatusBadRequest, "seconds must be between 1 and 60")
			return
		}
		seconds = parsed
	}

	sampleRate := defaultSampleRate
	if raw := r.URL.Query().Get("rate"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 8000 || parsed > 48000 {
			respondWithError(w, http.StatusBadRequest, "rate must be between 8000 and 48000")
			return
		}
		sampleRate = parsed
	}

	samples, err := ambience.Synthesize(kind, sampleRate, seconds)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	w.Header().Set("Content-Type", "audio/wav")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.WriteHeader(http.StatusOK)
	w.Write(ambience.EncodeWAV(samples, sampleRate))
}
