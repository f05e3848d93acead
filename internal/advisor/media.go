package advisor

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"

	"github.com/edubot-ec/edubot/internal/academic"
	"github.com/edubot-ec/edubot/internal/ai"
)

const (
	maxAudioBytes       = 25 << 20 // transcription provider upload limit
	minTranscriptRunes  = 3
	imageFingerprintLen = 100
)

// HandleAudio transcribes a voice note and feeds the transcript through the
// normal text pipeline.
func (e *Engine) HandleAudio(ctx context.Context, sess *Session, audio []byte, filename string, tokens academic.TokenSource) (string, error) {
	if len(audio) == 0 {
		return "No recibí ningún audio. Intenta grabarlo de nuevo.", nil
	}
	if len(audio) > maxAudioBytes {
		return "El audio es demasiado largo. Envía una nota de voz de menos de un minuto, por favor.", nil
	}

	transcriber := e.transcriber()
	if transcriber == nil {
		return "Por ahora no puedo escuchar notas de voz. Escríbeme tu consulta.", nil
	}

	transcript, err := transcriber.Transcribe(ctx, ai.TranscriptionRequest{
		Audio:    audio,
		Filename: filename,
		Language: "es",
	})
	if err != nil {
		slog.Error("transcription failed", "session_id", sess.ID, "error", err)
		return "No pude entender el audio. Intenta de nuevo o escríbeme tu consulta.", nil
	}

	transcript = strings.TrimSpace(transcript)
	if len([]rune(transcript)) < minTranscriptRunes {
		return "El audio se escuchó vacío. Intenta grabar de nuevo más cerca del micrófono.", nil
	}

	slog.Info("audio transcribed",
		"session_id", sess.ID,
		"transcript_len", len(transcript),
	)
	return e.HandleMessage(ctx, sess, transcript, tokens)
}

// HandleImage describes a photographed exercise. Repeated uploads of the
// same image get a fixed nudge instead of another vision call.
func (e *Engine) HandleImage(ctx context.Context, sess *Session, image []byte, mimeType, caption string) (string, error) {
	if len(image) == 0 {
		return "No recibí ninguna imagen. Intenta enviarla de nuevo.", nil
	}
	if mimeType == "" {
		mimeType = "image/jpeg"
	}

	fingerprint := imageFingerprint(image)
	if sess.Context.PendingAction == "image:"+fingerprint {
		return "Ya revisamos esa misma imagen. Si tienes una duda puntual sobre el ejercicio, escríbemela.", nil
	}

	if e.aiRouter == nil || !e.aiRouter.HasProvider() {
		return "Por ahora no puedo analizar imágenes. Escríbeme el enunciado del ejercicio.", nil
	}

	prompt := "Describe y explica el ejercicio de la imagen, paso a paso y en español."
	if caption != "" {
		prompt = caption
	}

	dataURL := fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(image))
	resp, err := e.aiRouter.Complete(ctx, ai.CompletionRequest{
		Messages: []ai.Message{
			{Role: "system", Content: advisorSystemPrompt},
			{Role: "user", Content: prompt, ImageURLs: []string{dataURL}},
		},
		Task:      ai.TaskVision,
		MaxTokens: 768,
	})
	if err != nil {
		slog.Error("vision completion failed", "session_id", sess.ID, "error", err)
		return "No pude analizar la imagen. Intenta con una foto más nítida o escríbeme el enunciado.", nil
	}

	sess.Context.PendingAction = "image:" + fingerprint
	if saveErr := e.store.Save(sess); saveErr != nil {
		slog.Error("failed to save session", "session_id", sess.ID, "error", saveErr)
	}
	return resp.Content, nil
}

func (e *Engine) transcriber() ai.Transcriber {
	if e.aiRouter == nil {
		return nil
	}
	return e.aiRouter.Transcriber()
}

// imageFingerprint hashes the size plus a leading slice of the bytes, which
// is enough to catch a student re-sending the exact same photo.
func imageFingerprint(image []byte) string {
	head := image
	if len(head) > imageFingerprintLen {
		head = head[:imageFingerprintLen]
	}
	sum := sha256.Sum256(append([]byte(fmt.Sprintf("%d:", len(image))), head...))
	return hex.EncodeToString(sum[:8])
}
