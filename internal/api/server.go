package api

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	fsrs "github.com/open-spaced-repetition/go-fsrs"

	"flashmind/internal/auth"
	"flashmind/internal/extract"
	"flashmind/internal/models"
	"flashmind/internal/quiz"
	"flashmind/internal/services"
)

const maxMultipartMemory = 8 << 20 // 8 MB

type Server struct {
	mux        *http.ServeMux
	users      *services.UserService
	sets       *services.SetService
	flashcards *services.FlashcardService
	documents  *services.DocumentService
	ingestion  *services.IngestionService
	checker    *quiz.Checker
	tokens     *auth.TokenManager
	jobs       *JobManager
}

// DocumentResult describes one processed upload: the stored document
// plus the flashcard candidates extracted from it.
type DocumentResult struct {
	DocumentID int64              `json:"documentId"`
	Name       string             `json:"name"`
	Kind       string             `json:"kind"`
	Status     string             `json:"status"`
	Message    string             `json:"message,omitempty"`
	Candidates []candidatePayload `json:"candidates"`
}

type candidatePayload struct {
	Question string  `json:"question"`
	Answer   string  `json:"answer"`
	Score    float64 `json:"score"`
	Strategy string  `json:"strategy"`
}

func NewServer(
	users *services.UserService,
	sets *services.SetService,
	flashcards *services.FlashcardService,
	documents *services.DocumentService,
	ingestion *services.IngestionService,
	checker *quiz.Checker,
	tokens *auth.TokenManager,
) *Server {
	s := &Server{
		mux:        http.NewServeMux(),
		users:      users,
		sets:       sets,
		flashcards: flashcards,
		documents:  documents,
		ingestion:  ingestion,
		checker:    checker,
		tokens:     tokens,
		jobs:       NewJobManager(),
	}
	s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) routes() {
	s.mux.HandleFunc("/api/health", s.handleHealth)
	s.mux.HandleFunc("/api/auth/signup", s.handleSignup)
	s.mux.HandleFunc("/api/auth/login", s.handleLogin)
	s.mux.HandleFunc("/api/sets", s.handleSets)
	s.mux.HandleFunc("/api/sets/", s.handleSetActions)
	s.mux.HandleFunc("/api/cards/", s.handleCardActions)
	s.mux.HandleFunc("/api/documents", s.handleUploadDocuments)
	s.mux.HandleFunc("/api/documents/jobs", s.handleJobs)
	s.mux.HandleFunc("/api/documents/jobs/", s.handleJobStatus)
	s.mux.HandleFunc("/api/generated/save", s.handleSaveGenerated)
	s.mux.HandleFunc("/api/progress", s.handleProgress)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}

	var payload credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}

	user, err := s.users.Register(r.Context(), payload.Username, payload.Password)
	if err != nil {
		if errors.Is(err, services.ErrUserExists) {
			writeError(w, http.StatusConflict, "username already taken")
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"token": token,
		"user":  map[string]any{"id": user.ID, "username": user.Username},
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}

	var payload credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}

	user, err := s.users.Authenticate(r.Context(), payload.Username, payload.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"token": token,
		"user":  map[string]any{"id": user.ID, "username": user.Username},
	})
}

// requireUser extracts and verifies the bearer token, writing a 401 on
// failure.
func (s *Server) requireUser(w http.ResponseWriter, r *http.Request) (int64, bool) {
	header := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || token == "" {
		writeError(w, http.StatusUnauthorized, "missing bearer token")
		return 0, false
	}

	userID, err := s.tokens.Verify(token)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "invalid or expired session")
		return 0, false
	}
	return userID, true
}

// ownedSet loads a set and confirms the user owns it, writing the
// appropriate error response otherwise.
func (s *Server) ownedSet(w http.ResponseWriter, ctx context.Context, userID, setID int64) (*models.FlashcardSet, bool) {
	set, err := s.sets.GetByID(ctx, setID)
	if err != nil {
		if errors.Is(err, services.ErrSetNotFound) {
			writeError(w, http.StatusNotFound, "set not found")
			return nil, false
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return nil, false
	}
	if set.UserID != userID {
		writeError(w, http.StatusForbidden, "set belongs to another user")
		return nil, false
	}
	return set, true
}

func (s *Server) handleSets(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUser(w, r)
	if !ok {
		return
	}

	switch r.Method {
	case http.MethodGet:
		sets, err := s.sets.ListByUser(r.Context(), userID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		out := make([]map[string]any, 0, len(sets))
		for _, set := range sets {
			out = append(out, map[string]any{
				"id":         set.ID,
				"name":       set.Name,
				"cardCount":  set.CardCount,
				"created_at": set.CreatedAt.Format(timeLayout),
			})
		}
		writeJSON(w, http.StatusOK, map[string]any{"sets": out})

	case http.MethodPost:
		var payload struct {
			Name string `json:"name"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			writeError(w, http.StatusBadRequest, "invalid payload")
			return
		}
		set, err := s.sets.Create(r.Context(), userID, payload.Name)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{
			"id":   set.ID,
			"name": set.Name,
		})

	default:
		methodNotAllowed(w, http.MethodGet, http.MethodPost)
	}
}

func (s *Server) handleSetActions(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUser(w, r)
	if !ok {
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/api/sets/")
	path = strings.Trim(path, "/")
	parts := strings.Split(path, "/")

	setID, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid set id")
		return
	}

	set, ok := s.ownedSet(w, r.Context(), userID, setID)
	if !ok {
		return
	}

	switch {
	case len(parts) == 1:
		s.handleGetSet(w, r, set)
	case len(parts) == 2 && parts[1] == "cards":
		s.handleCreateCard(w, r, set)
	case len(parts) == 2 && parts[1] == "next":
		s.handleNextDue(w, r, set)
	case len(parts) == 2 && parts[1] == "quiz":
		s.handleQuizBatch(w, r, userID, set)
	default:
		http.NotFound(w, r)
	}
}

func (s *Server) handleGetSet(w http.ResponseWriter, r *http.Request, set *models.FlashcardSet) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}

	cards, err := s.flashcards.ListBySet(r.Context(), set.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	out := make([]map[string]any, 0, len(cards))
	for _, card := range cards {
		out = append(out, cardPayload(&card))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"id":    set.ID,
		"name":  set.Name,
		"cards": out,
	})
}

func (s *Server) handleCreateCard(w http.ResponseWriter, r *http.Request, set *models.FlashcardSet) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}

	var payload struct {
		Question string `json:"question"`
		Answer   string `json:"answer"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}

	card, err := s.flashcards.CreateCard(r.Context(), set.ID, payload.Question, payload.Answer)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, cardPayload(card))
}

func (s *Server) handleNextDue(w http.ResponseWriter, r *http.Request, set *models.FlashcardSet) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}

	card, err := s.flashcards.NextDue(r.Context(), set.ID)
	if err != nil {
		if errors.Is(err, services.ErrNoDueCards) {
			writeJSON(w, http.StatusOK, map[string]any{
				"card":    nil,
				"message": "No cards due. Come back later!",
			})
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"card": cardPayload(card)})
}

func (s *Server) handleQuizBatch(w http.ResponseWriter, r *http.Request, userID int64, set *models.FlashcardSet) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}

	var payload struct {
		Attempts int `json:"attempts"`
		Correct  int `json:"correct"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}

	if err := s.flashcards.SaveQuizBatch(r.Context(), userID, set.ID, payload.Attempts, payload.Correct); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleCardActions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}

	userID, ok := s.requireUser(w, r)
	if !ok {
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/api/cards/")
	path = strings.Trim(path, "/")
	parts := strings.Split(path, "/")
	if len(parts) != 2 {
		http.NotFound(w, r)
		return
	}

	cardID, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid card id")
		return
	}

	card, err := s.flashcards.GetCard(r.Context(), cardID)
	if err != nil {
		if errors.Is(err, services.ErrCardNotFound) {
			writeError(w, http.StatusNotFound, "card not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	set, ok := s.ownedSet(w, r.Context(), userID, card.SetID)
	if !ok {
		return
	}

	switch parts[1] {
	case "check":
		s.handleCheckAnswer(w, r, userID, set, card)
	case "review":
		s.handleReviewCard(w, r, card)
	default:
		http.NotFound(w, r)
	}
}

func (s *Server) handleCheckAnswer(w http.ResponseWriter, r *http.Request, userID int64, set *models.FlashcardSet, card *models.Card) {
	var payload struct {
		Answer string `json:"answer"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}

	correct := s.checker.Check(payload.Answer, card.Answer)
	if err := s.flashcards.RecordQuizResult(r.Context(), userID, set.ID, correct); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	resp := map[string]any{"correct": correct}
	if !correct {
		resp["correctAnswer"] = card.Answer
	}
	writeJSON(w, http.StatusOK, resp)
}

type reviewRequest struct {
	Rating string `json:"rating"`
}

func (s *Server) handleReviewCard(w http.ResponseWriter, r *http.Request, card *models.Card) {
	var payload reviewRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}

	rating, err := parseRating(payload.Rating)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	updated, logEntry, err := s.flashcards.Review(r.Context(), card.ID, rating)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"card": map[string]any{
			"id":    updated.ID,
			"due":   nullTimeToString(updated.Due),
			"state": updated.State,
		},
		"log": map[string]any{
			"rating":  logEntry.Rating,
			"due_in":  logEntry.ScheduledDays,
			"updated": logEntry.ReviewedAt.Format(timeLayout),
		},
	})
}

func (s *Server) handleUploadDocuments(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}

	if _, ok := s.requireUser(w, r); !ok {
		return
	}

	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	if form := r.MultipartForm; form != nil {
		defer form.RemoveAll()
	}

	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		writeError(w, http.StatusBadRequest, "no files uploaded")
		return
	}

	results := make([]DocumentResult, 0, len(files))
	for _, file := range files {
		result, err := s.processDocument(r.Context(), file, nil)
		if err != nil {
			result.Status = FileStatusError
		}
		results = append(results, result)
	}

	writeJSON(w, http.StatusOK, map[string]any{"results": results})
}

func (s *Server) handleJobs(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/api/documents/jobs" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}

	userID, ok := s.requireUser(w, r)
	if !ok {
		return
	}

	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	form := r.MultipartForm
	if form == nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	files := form.File["files"]
	if len(files) == 0 {
		writeError(w, http.StatusBadRequest, "no files uploaded")
		return
	}

	fileNames := make([]string, len(files))
	for i, file := range files {
		fileNames[i] = file.Filename
	}

	fileHeaders := append([]*multipart.FileHeader(nil), files...)
	jobID, snapshot := s.jobs.CreateJob(userID, fileNames)

	go s.runUploadJob(context.Background(), jobID, fileHeaders, form)

	writeJSON(w, http.StatusAccepted, snapshot)
}

func (s *Server) handleJobStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}

	userID, ok := s.requireUser(w, r)
	if !ok {
		return
	}

	jobID := strings.TrimPrefix(r.URL.Path, "/api/documents/jobs/")
	jobID = strings.Trim(jobID, "/")
	if jobID == "" {
		http.NotFound(w, r)
		return
	}

	job, found := s.jobs.GetJob(jobID)
	if !found || job.UserID != userID {
		writeError(w, http.StatusNotFound, "job not found")
		return
	}

	writeJSON(w, http.StatusOK, job)
}

func (s *Server) handleSaveGenerated(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}

	userID, ok := s.requireUser(w, r)
	if !ok {
		return
	}

	var payload struct {
		SetName    string             `json:"setName"`
		DocumentID int64              `json:"documentId"`
		Cards      []candidatePayload `json:"cards"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if strings.TrimSpace(payload.SetName) == "" {
		writeError(w, http.StatusBadRequest, "setName is required")
		return
	}
	if len(payload.Cards) == 0 {
		writeError(w, http.StatusBadRequest, "no cards to save")
		return
	}

	cards := make([]extract.ScoredCard, 0, len(payload.Cards))
	for _, c := range payload.Cards {
		if strings.TrimSpace(c.Question) == "" || strings.TrimSpace(c.Answer) == "" {
			writeError(w, http.StatusBadRequest, "cards must have a question and an answer")
			return
		}
		cards = append(cards, extract.ScoredCard{
			Candidate: extract.Candidate{
				Question: c.Question,
				Answer:   c.Answer,
				Strategy: extract.Strategy(c.Strategy),
			},
			Score: c.Score,
		})
	}

	set, saved, err := s.ingestion.SaveGenerated(r.Context(), userID, payload.SetName, payload.DocumentID, cards)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"setId":   set.ID,
		"setName": set.Name,
		"saved":   saved,
	})
}

func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}

	userID, ok := s.requireUser(w, r)
	if !ok {
		return
	}

	entries, err := s.flashcards.ProgressByUser(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	out := make([]map[string]any, 0, len(entries))
	for _, p := range entries {
		out = append(out, map[string]any{
			"setId":         p.SetID,
			"setName":       p.SetName,
			"totalAttempts": p.TotalAttempts,
			"correct":       p.Correct,
			"accuracy":      p.Accuracy(),
			"lastReviewed":  p.LastReviewed.Format(timeLayout),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"progress": out})
}

func (s *Server) runUploadJob(ctx context.Context, jobID string, files []*multipart.FileHeader, form *multipart.Form) {
	defer func() {
		if form != nil {
			_ = form.RemoveAll()
		}
	}()

	if ctx == nil {
		ctx = context.Background()
	}

	s.jobs.MarkProcessing(jobID)
	for idx, file := range files {
		s.jobs.MarkFileStarted(jobID, idx)
		progress := func(step, message string, current, total int) {
			s.jobs.UpdateFileProgress(jobID, idx, step, message, current, total)
		}
		result, err := s.processDocument(ctx, file, progress)
		if err != nil {
			s.jobs.MarkFileError(jobID, idx, err.Error(), result)
			continue
		}
		s.jobs.MarkFileComplete(jobID, idx, result)
	}
	s.jobs.MarkCompleted(jobID)
}

func (s *Server) processDocument(ctx context.Context, file *multipart.FileHeader, progress services.ProgressCallback) (DocumentResult, error) {
	result := DocumentResult{
		Name:       file.Filename,
		Kind:       string(extract.KindFromFilename(file.Filename)),
		Status:     FileStatusError,
		Candidates: []candidatePayload{},
	}

	src, err := file.Open()
	if err != nil {
		result.Message = err.Error()
		return result, fmt.Errorf("open file %s: %w", file.Filename, err)
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		result.Message = err.Error()
		return result, fmt.Errorf("read file %s: %w", file.Filename, err)
	}

	doc, candidates, err := s.ingestion.ProcessDocumentWithProgress(ctx, file.Filename, data, progress)
	if err != nil {
		result.Message = err.Error()
		return result, err
	}

	result.DocumentID = doc.ID
	result.Status = "ok"
	for _, c := range candidates {
		result.Candidates = append(result.Candidates, candidatePayload{
			Question: c.Question,
			Answer:   c.Answer,
			Score:    c.Score,
			Strategy: string(c.Strategy),
		})
	}
	return result, nil
}

const timeLayout = time.RFC3339

func cardPayload(card *models.Card) map[string]any {
	return map[string]any{
		"id":       card.ID,
		"question": card.Question,
		"answer":   card.Answer,
		"score":    card.Score,
		"strategy": card.Strategy,
		"due":      nullTimeToString(card.Due),
		"state":    card.State,
		"reps":     card.Reps,
	}
}

func parseRating(raw string) (fsrs.Rating, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "again":
		return fsrs.Again, nil
	case "hard":
		return fsrs.Hard, nil
	case "good":
		return fsrs.Good, nil
	case "easy":
		return fsrs.Easy, nil
	default:
		return 0, fmt.Errorf("unknown rating %q", raw)
	}
}

func nullTimeToString(t sql.NullTime) *string {
	if t.Valid {
		str := t.Time.Format(timeLayout)
		return &str
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func methodNotAllowed(w http.ResponseWriter, allowed ...string) {
	if len(allowed) > 0 {
		w.Header().Set("Allow", strings.Join(allowed, ", "))
	}
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}
