package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/MikeSquared-Agency/secondthought/internal/assessment"
	"github.com/MikeSquared-Agency/secondthought/internal/chat"
	"github.com/MikeSquared-Agency/secondthought/internal/llm"
	"github.com/MikeSquared-Agency/secondthought/internal/platform"
	"github.com/MikeSquared-Agency/secondthought/internal/recovery"
	"github.com/MikeSquared-Agency/secondthought/internal/store"
	"github.com/MikeSquared-Agency/secondthought/internal/transcript"
)

type analyzeRequest struct {
	Transcript string               `json:"transcript"`
	Messages   []transcript.Message `json:"messages"`
	SourceRef  string               `json:"sourceRef"`
}

type analyzeResponse struct {
	ID         string                    `json:"id,omitempty"`
	Path       assessment.Path           `json:"path"`
	Assessment assessment.RiskAssessment `json:"assessment"`
}

type urlRequest struct {
	URL string `json:"url"`
}

type analyzeURLResponse struct {
	analyzeResponse
	recovery.Recovered
}

func (s *Server) platforms(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"platforms": platform.All()})
}

// analyze accepts {transcript}, {messages} or an exported JSONL log sent
// as application/x-ndjson.
func (s *Server) analyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if isNDJSON(r.Header.Get("Content-Type")) {
		msgs, err := transcript.ParseJSONL(http.MaxBytesReader(w, r.Body, maxBodyBytes))
		if err != nil {
			writeError(w, http.StatusBadRequest, "validation", "invalid JSONL: "+err.Error())
			return
		}
		req.Messages = msgs
		req.SourceRef = r.URL.Query().Get("sourceRef")
	} else if !decodeBody(w, r, &req) {
		return
	}

	text := req.Transcript
	if strings.TrimSpace(text) == "" {
		text = transcript.Format(req.Messages)
	}
	if strings.TrimSpace(text) == "" {
		writeError(w, http.StatusBadRequest, "validation", "transcript or messages required")
		return
	}

	writeJSON(w, http.StatusOK, s.analyzeText(r.Context(), text, store.SourceText, req.SourceRef))
}

func (s *Server) analyzeText(ctx context.Context, text, source, ref string) analyzeResponse {
	res := s.deps.Analyzer.Analyze(ctx, text)
	out := analyzeResponse{Path: res.Path, Assessment: res.Assessment}
	if s.deps.Assessments == nil {
		return out
	}
	rec, err := s.deps.Assessments.SaveAssessment(ctx, store.AssessmentRecord{
		Source:     source,
		SourceRef:  ref,
		Transcript: text,
		Result:     res,
	})
	if err != nil {
		s.logger.Error("failed to persist assessment", "error", err)
		return out
	}
	out.ID = rec.ID.String()
	return out
}

func (s *Server) getAssessment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if s.deps.Assessments == nil {
		writeError(w, http.StatusNotFound, "not_found", "assessment not found")
		return
	}
	rec, err := s.deps.Assessments.GetAssessment(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "not_found", "assessment not found")
		return
	}
	if err != nil {
		s.logger.Error("failed to load assessment", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "internal", "internal error")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) recoverURL(w http.ResponseWriter, r *http.Request) {
	var req urlRequest
	if !decodeBody(w, r, &req) {
		return
	}
	rec, err := s.deps.Recovery.RecoverResult(r.Context(), req.URL)
	if err != nil {
		s.writeRecoveryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) analyzeURL(w http.ResponseWriter, r *http.Request) {
	var req urlRequest
	if !decodeBody(w, r, &req) {
		return
	}
	rec, err := s.deps.Recovery.RecoverResult(r.Context(), req.URL)
	if err != nil {
		s.writeRecoveryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, analyzeURLResponse{
		analyzeResponse: s.analyzeText(r.Context(), rec.Conversation, store.SourceURL, req.URL),
		Recovered:       rec,
	})
}

type createConversationRequest struct {
	Title string `json:"title"`
}

type sendMessageRequest struct {
	Message string `json:"message"`
}

func (s *Server) createConversation(w http.ResponseWriter, r *http.Request) {
	var req createConversationRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "validation", "invalid JSON: "+err.Error())
		return
	}
	conv, err := s.deps.Chat.CreateConversation(r.Context(), req.Title)
	if err != nil {
		s.writeChatError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, conv)
}

func (s *Server) getConversation(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	view, err := s.deps.Chat.Conversation(r.Context(), id)
	if err != nil {
		s.writeChatError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) sendMessage(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req sendMessageRequest
	if !decodeBody(w, r, &req) {
		return
	}
	turn, err := s.deps.Chat.SendMessage(r.Context(), id, req.Message)
	if err != nil {
		s.writeChatError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, turn)
}

func (s *Server) writeChatError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, chat.ErrConversationNotFound):
		writeError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, chat.ErrEmptyMessage):
		writeError(w, http.StatusBadRequest, "validation", err.Error())
	case errors.Is(err, llm.ErrNotConfigured):
		writeError(w, http.StatusServiceUnavailable, "configuration", "chat requires a configured language model")
	case errors.Is(err, chat.ErrReplyFailed):
		s.logger.Warn("reply generation failed", "error", err)
		writeError(w, http.StatusBadGateway, "transport", chat.ErrReplyFailed.Error())
	default:
		s.logger.Error("chat request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal", "internal error")
	}
}

func isNDJSON(contentType string) bool {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mt == "application/x-ndjson" || mt == "application/jsonl"
}
