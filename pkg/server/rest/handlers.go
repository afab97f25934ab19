package rest

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"traffix/pkg/datastructure"
	"traffix/pkg/engine/assignment"
	"traffix/pkg/server/rest/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	enTranslations "github.com/go-playground/validator/v10/translations/en"

	"traffix/pkg/network"
)

type AssignmentService interface {
	NetworkStats(ctx context.Context) (numZones, numNodes, numLinks int, totalDemand float64)
	ShortestPath(ctx context.Context, origin int32) (*datastructure.ShortestPathTree, error)
	AllOrNothing(ctx context.Context) ([]service.LinkFlow, error)
	SolveEquilibrium(ctx context.Context, tolerance float64, maxIterations int) (assignment.Summary, []service.LinkFlow, error)
}

type AssignmentHandler struct {
	svc     AssignmentService
	metrics *Metrics
}

func AssignmentRouter(r *chi.Mux, svc AssignmentService, m *Metrics) {
	handler := &AssignmentHandler{svc: svc, metrics: m}

	r.Group(func(r chi.Router) {
		r.Route("/api/assignment", func(r chi.Router) {
			r.Get("/network", handler.NetworkStats)
			r.Post("/shortest-path", handler.ShortestPath)
			r.Get("/all-or-nothing", handler.AllOrNothing)
			r.Post("/equilibrium", handler.SolveEquilibrium)
		})
	})
}

// NetworkStatsResponse model info
//
//	@Description	summary of the loaded network
type NetworkStatsResponse struct {
	NumZones    int     `json:"num_zones"`
	NumNodes    int     `json:"num_nodes"`
	NumLinks    int     `json:"num_links"`
	TotalDemand float64 `json:"total_demand"`
}

func (h *AssignmentHandler) NetworkStats(w http.ResponseWriter, r *http.Request) {
	zones, nodes, links, demand := h.svc.NetworkStats(r.Context())
	render.Status(r, http.StatusOK)
	render.JSON(w, r, &NetworkStatsResponse{
		NumZones:    zones,
		NumNodes:    nodes,
		NumLinks:    links,
		TotalDemand: demand,
	})
}

// ShortestPathRequest model info
//
//	@Description	request body for a single-origin shortest path search
type ShortestPathRequest struct {
	Origin int32 `json:"origin" validate:"required,gte=1"`
}

func (s *ShortestPathRequest) Bind(r *http.Request) error {
	if s.Origin == 0 {
		return errors.New("invalid request")
	}
	return nil
}

// NodeLabel is one node's entry in the shortest path tree.
type NodeLabel struct {
	NodeID      int32    `json:"node_id"`
	Potential   *float64 `json:"potential"` // null when the node is unreachable
	Predecessor *int32   `json:"predecessor,omitempty"`
}

// ShortestPathResponse model info
//
//	@Description	potential/predecessor table for every node
type ShortestPathResponse struct {
	Origin int32       `json:"origin"`
	Labels []NodeLabel `json:"labels"`
}

func RenderShortestPathResponse(tree *datastructure.ShortestPathTree) *ShortestPathResponse {
	labels := make([]NodeLabel, 0, len(tree.Potentials))
	for i := range tree.Potentials {
		nodeID := int32(i + 1)
		label := NodeLabel{NodeID: nodeID}
		if tree.Reached(nodeID) {
			potential := tree.Potential(nodeID)
			label.Potential = &potential
		}
		if pred := tree.Predecessor(nodeID); pred != datastructure.NoPredecessor {
			label.Predecessor = &pred
		}
		labels = append(labels, label)
	}
	return &ShortestPathResponse{Origin: tree.Origin, Labels: labels}
}

func (h *AssignmentHandler) ShortestPath(w http.ResponseWriter, r *http.Request) {
	data := &ShortestPathRequest{}
	if err := render.Bind(r, data); err != nil {
		render.Render(w, r, ErrInvalidRequest(err))
		return
	}
	validate := validator.New()
	if err := validate.Struct(*data); err != nil {
		english := en.New()
		uni := ut.New(english, english)
		trans, _ := uni.GetTranslator("en")
		_ = enTranslations.RegisterDefaultTranslations(validate, trans)
		vv := translateError(err, trans)
		render.Render(w, r, ErrValidation(err, vv))
		return
	}

	tree, err := h.svc.ShortestPath(r.Context(), data.Origin)
	if err != nil {
		if errors.Is(err, network.ErrConfiguration) {
			render.Render(w, r, ErrInvalidRequest(err))
			return
		}
		render.Render(w, r, ErrInternalServerErrorRend(errors.New("internal server error")))
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, RenderShortestPathResponse(tree))
}

// FlowsResponse model info
//
//	@Description	per-link flow and cost table
type FlowsResponse struct {
	Links []service.LinkFlow `json:"links"`
}

func (h *AssignmentHandler) AllOrNothing(w http.ResponseWriter, r *http.Request) {
	flows, err := h.svc.AllOrNothing(r.Context())
	if err != nil {
		if errors.Is(err, network.ErrUnreachableDestination) {
			render.Render(w, r, ErrUnprocessable(err))
			return
		}
		render.Render(w, r, ErrInternalServerErrorRend(errors.New("internal server error")))
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, &FlowsResponse{Links: flows})
}

// EquilibriumRequest model info
//
//	@Description	request body for a user-equilibrium solve
type EquilibriumRequest struct {
	Tolerance     float64 `json:"tolerance" validate:"omitempty,gt=0"`
	MaxIterations int     `json:"max_iterations" validate:"omitempty,gte=1"`
}

func (s *EquilibriumRequest) Bind(r *http.Request) error {
	if s.Tolerance < 0 || s.MaxIterations < 0 {
		return errors.New("invalid request")
	}
	return nil
}

// EquilibriumResponse model info
//
//	@Description	equilibrium solve result with per-link flows and costs
type EquilibriumResponse struct {
	Iterations int                `json:"iterations"`
	Metric     float64            `json:"metric"`
	Converged  bool               `json:"converged"`
	Links      []service.LinkFlow `json:"links"`
}

func (h *AssignmentHandler) SolveEquilibrium(w http.ResponseWriter, r *http.Request) {
	data := &EquilibriumRequest{}
	if err := render.Bind(r, data); err != nil {
		render.Render(w, r, ErrInvalidRequest(err))
		return
	}
	validate := validator.New()
	if err := validate.Struct(*data); err != nil {
		english := en.New()
		uni := ut.New(english, english)
		trans, _ := uni.GetTranslator("en")
		_ = enTranslations.RegisterDefaultTranslations(validate, trans)
		vv := translateError(err, trans)
		render.Render(w, r, ErrValidation(err, vv))
		return
	}

	summary, flows, err := h.svc.SolveEquilibrium(r.Context(), data.Tolerance, data.MaxIterations)
	if err != nil {
		var ncErr *assignment.NonConvergenceError
		switch {
		case errors.As(err, &ncErr):
			// report the approximate solution along with the final metric
			if h.metrics != nil {
				h.metrics.SolveIterations.Observe(float64(summary.Iterations))
			}
			render.Status(r, http.StatusOK)
			render.JSON(w, r, &EquilibriumResponse{
				Iterations: summary.Iterations,
				Metric:     summary.Metric,
				Converged:  false,
				Links:      flows,
			})
		case errors.Is(err, network.ErrUnreachableDestination):
			render.Render(w, r, ErrUnprocessable(err))
		default:
			render.Render(w, r, ErrInternalServerErrorRend(errors.New("internal server error")))
		}
		return
	}

	if h.metrics != nil {
		h.metrics.SolveIterations.Observe(float64(summary.Iterations))
	}
	render.Status(r, http.StatusOK)
	render.JSON(w, r, &EquilibriumResponse{
		Iterations: summary.Iterations,
		Metric:     summary.Metric,
		Converged:  summary.Converged,
		Links:      flows,
	})
}

func ErrInvalidRequest(err error) render.Renderer {
	return &ErrResponse{
		Err:            err,
		HTTPStatusCode: 400,
		StatusText:     "Invalid request.",
		ErrorText:      err.Error(),
	}
}

func ErrUnprocessable(err error) render.Renderer {
	return &ErrResponse{
		Err:            err,
		HTTPStatusCode: 422,
		StatusText:     "Unprocessable network.",
		ErrorText:      err.Error(),
	}
}

// ErrResponse model info
//
//	@Description	model for error responses
type ErrResponse struct {
	Err            error `json:"-"` // low-level runtime error
	HTTPStatusCode int   `json:"-"` // http response status code

	StatusText    string   `json:"status"`          // user-level status message
	AppCode       int64    `json:"code,omitempty"`  // application-specific error code
	ErrorText     string   `json:"error,omitempty"` // application-level error message, for debugging
	ErrValidation []string `json:"validation,omitempty"`
}

func (e *ErrResponse) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.HTTPStatusCode)
	return nil
}

func translateError(err error, trans ut.Translator) (errs []error) {
	if err == nil {
		return nil
	}
	validatorErrs := err.(validator.ValidationErrors)
	for _, e := range validatorErrs {
		translatedErr := fmt.Errorf(e.Translate(trans))
		errs = append(errs, translatedErr)
	}
	return errs
}

func ErrValidation(err error, errV []error) render.Renderer {
	vv := []string{}
	for _, v := range errV {
		vv = append(vv, v.Error())
	}
	return &ErrResponse{
		Err:            err,
		HTTPStatusCode: 400,
		StatusText:     "Invalid request.",
		ErrorText:      err.Error(),
		ErrValidation:  vv,
	}
}

func ErrInternalServerErrorRend(err error) render.Renderer {
	return &ErrResponse{
		Err:            err,
		HTTPStatusCode: 500,
		StatusText:     "Internal server error.",
		ErrorText:      err.Error(),
	}
}
