package advisor_test

import (
	"context"
	"strings"
	"testing"

	"github.com/edubot-ec/edubot/internal/academic"
	"github.com/edubot-ec/edubot/internal/ai"
)

func TestHandleAudio_TranscriptFlowsThroughPipeline(t *testing.T) {
	router := ai.NewRouter()
	mock := &ai.MockProvider{Transcript: "cuál es mi promedio"}
	router.Register("mock", mock)
	router.RegisterTranscriber(mock)

	engine, sess, _ := newTestEngine(t, &fakeSource{enrollments: testEnrollments()}, router)

	reply, err := engine.HandleAudio(context.Background(), sess, []byte("opus bytes"), "voz.ogg", academic.StaticToken("tok"))
	if err != nil {
		t.Fatalf("HandleAudio() error = %v", err)
	}
	if !strings.Contains(reply, "75.00") {
		t.Errorf("reply = %q, want the average answer", reply)
	}
}

func TestHandleAudio_Empty(t *testing.T) {
	engine, sess, _ := newTestEngine(t, &fakeSource{}, nil)

	reply, err := engine.HandleAudio(context.Background(), sess, nil, "voz.ogg", academic.StaticToken("tok"))
	if err != nil {
		t.Fatalf("HandleAudio() error = %v", err)
	}
	if !strings.Contains(reply, "No recibí ningún audio") {
		t.Errorf("reply = %q", reply)
	}
}

func TestHandleAudio_TooLarge(t *testing.T) {
	engine, sess, _ := newTestEngine(t, &fakeSource{}, nil)

	reply, err := engine.HandleAudio(context.Background(), sess, make([]byte, 26<<20), "voz.ogg", academic.StaticToken("tok"))
	if err != nil {
		t.Fatalf("HandleAudio() error = %v", err)
	}
	if !strings.Contains(reply, "demasiado largo") {
		t.Errorf("reply = %q", reply)
	}
}

func TestHandleAudio_NoTranscriber(t *testing.T) {
	engine, sess, _ := newTestEngine(t, &fakeSource{}, ai.NewRouter())

	reply, err := engine.HandleAudio(context.Background(), sess, []byte("opus bytes"), "voz.ogg", academic.StaticToken("tok"))
	if err != nil {
		t.Fatalf("HandleAudio() error = %v", err)
	}
	if !strings.Contains(reply, "no puedo escuchar") {
		t.Errorf("reply = %q", reply)
	}
}

func TestHandleAudio_ShortTranscript(t *testing.T) {
	router := ai.NewRouter()
	mock := &ai.MockProvider{Transcript: "eh"}
	router.Register("mock", mock)
	router.RegisterTranscriber(mock)

	engine, sess, _ := newTestEngine(t, &fakeSource{}, router)

	reply, err := engine.HandleAudio(context.Background(), sess, []byte("opus bytes"), "voz.ogg", academic.StaticToken("tok"))
	if err != nil {
		t.Fatalf("HandleAudio() error = %v", err)
	}
	if !strings.Contains(reply, "se escuchó vacío") {
		t.Errorf("reply = %q", reply)
	}
}

func TestHandleImage_DescribesOnce(t *testing.T) {
	router := ai.NewRouter()
	mock := ai.NewMockProvider("es una integral definida")
	router.Register("mock", mock)

	engine, sess, _ := newTestEngine(t, &fakeSource{}, router)

	image := []byte("jpeg bytes of an exercise")
	reply, err := engine.HandleImage(context.Background(), sess, image, "image/jpeg", "")
	if err != nil {
		t.Fatalf("HandleImage() error = %v", err)
	}
	if reply != "es una integral definida" {
		t.Errorf("reply = %q", reply)
	}

	req := mock.LastRequest
	if req == nil || req.Task != ai.TaskVision {
		t.Fatalf("request = %+v, want a vision task", req)
	}
	if len(req.Messages) != 2 || len(req.Messages[1].ImageURLs) != 1 {
		t.Fatalf("messages = %+v", req.Messages)
	}
	if !strings.HasPrefix(req.Messages[1].ImageURLs[0], "data:image/jpeg;base64,") {
		t.Errorf("image URL = %q", req.Messages[1].ImageURLs[0])
	}

	// The same bytes again should not trigger another vision call.
	again, err := engine.HandleImage(context.Background(), sess, image, "image/jpeg", "")
	if err != nil {
		t.Fatalf("HandleImage() error = %v", err)
	}
	if !strings.Contains(again, "Ya revisamos esa misma imagen") {
		t.Errorf("repeat reply = %q", again)
	}
}

func TestHandleImage_CaptionBecomesPrompt(t *testing.T) {
	router := ai.NewRouter()
	mock := ai.NewMockProvider("ok")
	router.Register("mock", mock)

	engine, sess, _ := newTestEngine(t, &fakeSource{}, router)

	_, err := engine.HandleImage(context.Background(), sess, []byte("png bytes"), "image/png", "¿cómo resuelvo el punto 3?")
	if err != nil {
		t.Fatalf("HandleImage() error = %v", err)
	}
	if got := mock.LastRequest.Messages[1].Content; got != "¿cómo resuelvo el punto 3?" {
		t.Errorf("prompt = %q", got)
	}
}

func TestHandleImage_NoProvider(t *testing.T) {
	engine, sess, _ := newTestEngine(t, &fakeSource{}, nil)

	reply, err := engine.HandleImage(context.Background(), sess, []byte("jpeg bytes"), "image/jpeg", "")
	if err != nil {
		t.Fatalf("HandleImage() error = %v", err)
	}
	if !strings.Contains(reply, "no puedo analizar imágenes") {
		t.Errorf("reply = %q", reply)
	}
}

func TestHandleImage_Empty(t *testing.T) {
	engine, sess, _ := newTestEngine(t, &fakeSource{}, nil)

	reply, err := engine.HandleImage(context.Background(), sess, nil, "", "")
	if err != nil {
		t.Fatalf("HandleImage() error = %v", err)
	}
	if !strings.Contains(reply, "No recibí ninguna imagen") {
		t.Errorf("reply = %q", reply)
	}
}
