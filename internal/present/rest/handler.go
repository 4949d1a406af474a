package rest

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/aakaru/securelance/internal/domain"
	"github.com/aakaru/securelance/internal/present/rest/middleware"
	"github.com/aakaru/securelance/internal/present/rest/presenter"
	"github.com/aakaru/securelance/internal/service"
	"github.com/aakaru/securelance/internal/usecase"
)

const maxUploadBytes = 16 << 20

type Handler struct {
	auth        *usecase.AuthUsecase
	gig         *usecase.GigUsecase
	leaderboard *usecase.LeaderboardUsecase
	submission  *usecase.SubmissionUsecase
	profile     *usecase.ProfileUsecase
	signal      *service.SignalService
}

func NewHandler(
	auth *usecase.AuthUsecase,
	gig *usecase.GigUsecase,
	leaderboard *usecase.LeaderboardUsecase,
	submission *usecase.SubmissionUsecase,
	profile *usecase.ProfileUsecase,
	signal *service.SignalService,
) *Handler {
	return &Handler{
		auth:        auth,
		gig:         gig,
		leaderboard: leaderboard,
		submission:  submission,
		profile:     profile,
		signal:      signal,
	}
}

func (h *Handler) RegisterRoutes(e *echo.Echo, authMiddleware *middleware.AuthMiddleware) {
	api := e.Group("/api/v1")

	api.GET("/auth/nonce/:address", h.handleNonce)
	api.POST("/auth/verify", h.handleVerify)
	api.POST("/auth/signup", h.handleSignup)

	api.POST("/gigs", h.handleCreateGig, authMiddleware.RequireAuth)
	api.GET("/gigs", h.handleQueryGigs)
	api.PUT("/gigs/:contractGigId/select", h.handleSelectFreelancer, authMiddleware.RequireAuth)
	api.PUT("/gigs/:contractGigId/complete", h.handleCompleteGig, authMiddleware.RequireAuth)
	api.PUT("/gigs/:contractGigId/cancel", h.handleCancelGig, authMiddleware.RequireAuth)

	api.GET("/analytics/leaderboard", h.handleLeaderboard)

	api.POST("/submissions", h.handleSubmit, authMiddleware.RequireAuth)
	api.GET("/submissions", h.handleListSubmissions)

	api.GET("/profile/me", h.handleMyProfile, authMiddleware.RequireAuth)
	api.PUT("/profile/me", h.handleUpdateProfile, authMiddleware.RequireAuth)
	api.POST("/profile/me/photo", h.handleUploadPhoto, authMiddleware.RequireAuth)
	api.GET("/profile/:id", h.handlePublicProfile)

	e.GET("/realtime", h.handleRealtime)
}

func (h *Handler) handleNonce(c echo.Context) error {
	ctx := c.Request().Context()

	nonce, err := h.auth.RequestNonce(ctx, c.Param("address"))
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, echo.Map{"nonce": nonce})
}

type verifyRequest struct {
	Address   string `json:"address"`
	Signature string `json:"signature"`
	Username  string `json:"username"`
}

func (h *Handler) handleVerify(c echo.Context) error {
	ctx := c.Request().Context()

	var req verifyRequest
	if err := c.Bind(&req); err != nil {
		return presenter.BadRequest(c, err)
	}

	result, err := h.auth.VerifyAndLogin(ctx, req.Address, req.Signature, req.Username)
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, result)
}

type signupRequest struct {
	Username string `json:"username"`
	Address  string `json:"address"`
}

func (h *Handler) handleSignup(c echo.Context) error {
	ctx := c.Request().Context()

	var req signupRequest
	if err := c.Bind(&req); err != nil {
		return presenter.BadRequest(c, err)
	}

	result, err := h.auth.Signup(ctx, req.Username, req.Address)
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.Created(c, result)
}

func (h *Handler) handleCreateGig(c echo.Context) error {
	ctx := c.Request().Context()

	var input usecase.CreateGigInput
	if err := c.Bind(&input); err != nil {
		return presenter.BadRequest(c, err)
	}

	gig, err := h.gig.Create(ctx, input)
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.Created(c, gig)
}

func (h *Handler) handleQueryGigs(c echo.Context) error {
	ctx := c.Request().Context()

	filter := domain.GigFilter{
		ClientAddress:         c.QueryParam("clientAddress"),
		FreelancerAddress:     c.QueryParam("freelancerAddress"),
		ContractGigID:         c.QueryParam("contractGigId"),
		EscrowContractAddress: c.QueryParam("escrowContractAddress"),
	}
	if statusStr := c.QueryParam("status"); statusStr != "" {
		status := domain.GigStatus(statusStr)
		filter.Status = &status
	}

	gigs, err := h.gig.Query(ctx, filter)
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, gigs)
}

func (h *Handler) gigKey(c echo.Context) domain.GigKey {
	return domain.GigKey{
		ContractGigID:         c.Param("contractGigId"),
		EscrowContractAddress: c.QueryParam("escrowContractAddress"),
	}
}

type selectFreelancerRequest struct {
	FreelancerAddress string `json:"freelancerAddress"`
}

func (h *Handler) handleSelectFreelancer(c echo.Context) error {
	ctx := c.Request().Context()

	var req selectFreelancerRequest
	if err := c.Bind(&req); err != nil {
		return presenter.BadRequest(c, err)
	}

	gig, err := h.gig.SelectFreelancer(ctx, h.gigKey(c), req.FreelancerAddress)
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, gig)
}

func (h *Handler) handleCompleteGig(c echo.Context) error {
	ctx := c.Request().Context()

	gig, err := h.gig.Complete(ctx, h.gigKey(c))
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, gig)
}

func (h *Handler) handleCancelGig(c echo.Context) error {
	ctx := c.Request().Context()

	gig, err := h.gig.Cancel(ctx, h.gigKey(c))
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, gig)
}

func (h *Handler) handleLeaderboard(c echo.Context) error {
	ctx := c.Request().Context()

	limit := 0
	if limitStr := c.QueryParam("limit"); limitStr != "" {
		limitInt, err := strconv.Atoi(limitStr)
		if err != nil {
			return presenter.BadRequestMessage(c, "invalid limit parameter")
		}
		limit = limitInt
	}

	ranking, err := h.leaderboard.TopFreelancers(ctx, limit)
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, ranking)
}

func (h *Handler) handleSubmit(c echo.Context) error {
	ctx := c.Request().Context()
	requesterID, _ := ctx.Value(domain.RequesterIDCtxKey).(string)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return presenter.BadRequestMessage(c, "file is required")
	}
	if fileHeader.Size > maxUploadBytes {
		return presenter.BadRequestMessage(c, "file too large")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return presenter.BadRequest(c, err)
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
	if err != nil {
		return presenter.InternalError(c, err)
	}

	submission, err := h.submission.Submit(ctx, usecase.SubmitInput{
		SubmitterID:   requesterID,
		ContractGigID: c.FormValue("contractGigId"),
		Milestone:     c.FormValue("milestone"),
		Notes:         c.FormValue("notes"),
		Filename:      fileHeader.Filename,
		Data:          data,
	})
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.Created(c, submission)
}

func (h *Handler) handleListSubmissions(c echo.Context) error {
	ctx := c.Request().Context()

	submissions, err := h.submission.List(ctx, domain.SubmissionFilter{
		SubmitterID:   c.QueryParam("submitterId"),
		ContractGigID: c.QueryParam("contractGigId"),
	})
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, submissions)
}

func (h *Handler) handleMyProfile(c echo.Context) error {
	ctx := c.Request().Context()
	requesterID, _ := ctx.Value(domain.RequesterIDCtxKey).(string)

	profile, err := h.profile.Get(ctx, requesterID)
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, profile)
}

func (h *Handler) handleUpdateProfile(c echo.Context) error {
	ctx := c.Request().Context()
	requesterID, _ := ctx.Value(domain.RequesterIDCtxKey).(string)

	var update domain.ProfileUpdate
	if err := c.Bind(&update); err != nil {
		return presenter.BadRequest(c, err)
	}

	profile, err := h.profile.Update(ctx, requesterID, update)
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, profile)
}

func (h *Handler) handleUploadPhoto(c echo.Context) error {
	ctx := c.Request().Context()
	requesterID, _ := ctx.Value(domain.RequesterIDCtxKey).(string)

	fileHeader, err := c.FormFile("photo")
	if err != nil {
		return presenter.BadRequestMessage(c, "photo is required")
	}
	if fileHeader.Size > maxUploadBytes {
		return presenter.BadRequestMessage(c, "file too large")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return presenter.BadRequest(c, err)
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
	if err != nil {
		return presenter.InternalError(c, err)
	}

	profile, err := h.profile.SetPhoto(ctx, requesterID, fileHeader.Filename, data)
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, profile)
}

func (h *Handler) handlePublicProfile(c echo.Context) error {
	ctx := c.Request().Context()

	profile, err := h.profile.Get(ctx, c.Param("id"))
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, profile)
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type Request struct {
	Type     string   `json:"type"`
	Prefixes []string `json:"prefixes"`
}

// matchesPrefixes reports whether the event touches an address starting
// with one of the subscribed prefixes. No subscription means everything.
func matchesPrefixes(event domain.GigEvent, prefixes []string) bool {
	if len(prefixes) == 0 {
		return true
	}
	for _, prefix := range prefixes {
		p := strings.ToLower(prefix)
		if strings.HasPrefix(event.Gig.ClientAddress, p) {
			return true
		}
		if event.Gig.FreelancerAddress != nil && strings.HasPrefix(*event.Gig.FreelancerAddress, p) {
			return true
		}
	}
	return false
}

func (h *Handler) handleRealtime(c echo.Context) error {
	ws, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		slog.Error(
			"Failed to upgrade WebSocket",
			slog.String("error", err.Error()),
			slog.String("module", "socket"),
		)
		return err
	}
	defer func() {
		ws.Close()
	}()

	ctx, cancel := context.WithCancel(c.Request().Context())
	defer cancel()

	events, err := h.signal.Subscribe(ctx)
	if err != nil {
		slog.ErrorContext(
			ctx, "Failed to subscribe to gig events",
			slog.String("error", err.Error()),
			slog.String("module", "socket"),
		)
		return nil
	}

	var mu sync.Mutex
	var prefixes []string

	quit := make(chan struct{})

	go func() {
		defer close(quit)
		for {
			var req Request
			err := ws.ReadJSON(&req)
			if err != nil {

				wsErr, ok := err.(*websocket.CloseError)
				if ok {
					if !(wsErr.Code == websocket.CloseNormalClosure || wsErr.Code == websocket.CloseGoingAway) {
						slog.DebugContext(
							ctx, "WebSocket closed",
							slog.String("error", wsErr.Error()),
							slog.String("module", "socket"),
						)
					}
				} else {
					slog.ErrorContext(
						ctx, "Error reading message",
						slog.String("error", err.Error()),
						slog.String("module", "socket"),
					)
				}

				break
			}

			switch req.Type {
			case "listen":
				mu.Lock()
				prefixes = req.Prefixes
				mu.Unlock()
				slog.DebugContext(
					ctx, fmt.Sprintf("Socket subscribe: %s", req.Prefixes),
					slog.String("module", "socket"),
				)
			case "h": // heartbeat
				// do nothing
			default:
				slog.InfoContext(
					ctx, "Unknown request type",
					slog.String("type", req.Type),
					slog.String("module", "socket"),
				)
			}
		}
	}()

	for {
		select {
		case <-quit:
			return nil
		case event, ok := <-events:
			if !ok {
				return nil
			}

			mu.Lock()
			wanted := matchesPrefixes(event, prefixes)
			mu.Unlock()
			if !wanted {
				continue
			}

			err := ws.WriteJSON(event)
			if err != nil {
				slog.ErrorContext(
					ctx, "Error writing message",
					slog.String("error", err.Error()),
					slog.String("module", "socket"),
				)
				return nil
			}
		}
	}
}
