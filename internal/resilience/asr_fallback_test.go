package resilience

import (
	"errors"
	"testing"

	"github.com/articulab/speechgrade/pkg/provider/asr"
	asrmock "github.com/articulab/speechgrade/pkg/provider/asr/mock"
)

func TestASRFallbackPrimaryHealthy(t *testing.T) {
	t.Parallel()

	primary := &asrmock.Provider{Result: &asr.Transcription{Text: "好的"}}
	backup := &asrmock.Provider{Result: &asr.Transcription{Text: "備援"}}

	f := NewASRFallback(primary, "whisper-local", FallbackConfig{})
	f.AddFallback("whisper-remote", backup)

	tr, err := f.Transcribe(t.Context(), nil)
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if tr.Text != "好的" {
		t.Errorf("got %q, want primary transcription", tr.Text)
	}
	if len(backup.Calls) != 0 {
		t.Errorf("backup called %d times, want 0", len(backup.Calls))
	}
}

func TestASRFallbackFailsOver(t *testing.T) {
	t.Parallel()

	primary := &asrmock.Provider{Err: errors.New("model not loaded")}
	backup := &asrmock.Provider{Result: &asr.Transcription{Text: "備援"}}

	f := NewASRFallback(primary, "whisper-local", FallbackConfig{})
	f.AddFallback("whisper-remote", backup)

	tr, err := f.Transcribe(t.Context(), nil)
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if tr.Text != "備援" {
		t.Errorf("got %q, want backup transcription", tr.Text)
	}
}

func TestASRFallbackAllFail(t *testing.T) {
	t.Parallel()

	primary := &asrmock.Provider{Err: errors.New("model not loaded")}
	backup := &asrmock.Provider{Err: errors.New("connection refused")}

	f := NewASRFallback(primary, "whisper-local", FallbackConfig{})
	f.AddFallback("whisper-remote", backup)

	if _, err := f.Transcribe(t.Context(), nil); !errors.Is(err, ErrAllFailed) {
		t.Errorf("got error %v, want ErrAllFailed", err)
	}
}
