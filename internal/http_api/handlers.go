package http_api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tachi-protocol/crawlgate/internal/models"
	"github.com/tachi-protocol/crawlgate/internal/telemetry"
	"github.com/tachi-protocol/crawlgate/pkg/validation"
)

// ChallengeResponse is the body of a 402 challenge for an unpaid request.
type ChallengeResponse struct {
	Error    string                   `json:"error"`
	Payment  *models.PaymentChallenge `json:"payment"`
	Resource ResourceInfo             `json:"resource"`
}

// ResourceInfo describes the requested resource inside a challenge.
type ResourceInfo struct {
	Path      string `json:"path"`
	Available bool   `json:"available"`
}

// FailureResponse is the body of a 402 verification failure.
type FailureResponse struct {
	Error  string `json:"error"`
	Reason string `json:"reason"`
}

// SuccessResponse is the body of a 200 paid delivery.
type SuccessResponse struct {
	Success bool           `json:"success"`
	Payment PaymentSummary `json:"payment"`
	Content ContentPayload `json:"content"`
}

// PaymentSummary echoes the verified payment back to the requester.
type PaymentSummary struct {
	Reference  string `json:"reference"`
	AmountPaid string `json:"amountPaid"`
	Verified   bool   `json:"verified"`
}

// ContentPayload carries the delivered resource.
type ContentPayload struct {
	Path string `json:"path"`
	Type string `json:"type"`
	Body string `json:"body"`
}

// PricingEntry is one row of the pricing listing.
type PricingEntry struct {
	Path               string `json:"path"`
	Description        string `json:"description,omitempty"`
	Amount             string `json:"amount"`
	AmountSmallestUnit string `json:"amountSmallestUnit"`
	Token              string `json:"token"`
	Network            string `json:"network"`
}

// content is the handler answering every non-API path: the content gate.
func (s *HTTPServer) content(c *gin.Context) {
	path := c.Request.URL.Path

	resource, ok := s.gateway.Resolve(path)
	if !ok {
		telemetry.RequestsTotal.WithLabelValues("unknown_path").Inc()
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
		return
	}

	reference := extractBearer(c.GetHeader("Authorization"))
	if reference == "" {
		// Expected first contact for an unpaid requester, not an error.
		s.challenge(c, resource)
		return
	}

	if err := validation.ValidateReference(reference); err != nil {
		s.logger.Debugw("Malformed payment reference", "path", path, "error", err)
		telemetry.RequestsTotal.WithLabelValues("rejected").Inc()
		c.JSON(http.StatusPaymentRequired, FailureResponse{
			Error:  "Payment verification failed",
			Reason: string(models.FailureNotFound),
		})
		return
	}

	result := s.gateway.Deliver(c.Request.Context(), resource, validation.NormalizeReference(reference))
	if !result.Valid {
		telemetry.RequestsTotal.WithLabelValues("rejected").Inc()
		c.JSON(http.StatusPaymentRequired, FailureResponse{
			Error:  "Payment verification failed",
			Reason: string(result.Reason),
		})
		return
	}

	telemetry.RequestsTotal.WithLabelValues("served").Inc()
	c.JSON(http.StatusOK, SuccessResponse{
		Success: true,
		Payment: PaymentSummary{
			Reference:  validation.NormalizeReference(reference),
			AmountPaid: result.AmountPaid.String(),
			Verified:   true,
		},
		Content: ContentPayload{
			Path: resource.Path,
			Type: resource.ContentType,
			Body: resource.Body,
		},
	})
}

// challenge answers an unpaid request with the structured 402 challenge,
// mirrored into headers for clients that prefer them.
func (s *HTTPServer) challenge(c *gin.Context, resource *models.Resource) {
	payment := s.gateway.ChallengeFor(resource)

	c.Header("X-Payment-Price", payment.Amount)
	c.Header("X-Payment-Recipient", payment.Recipient)
	c.Header("X-Payment-Token", payment.Token)
	c.Header("X-Payment-Network", payment.Network)

	telemetry.RequestsTotal.WithLabelValues("challenged").Inc()
	c.JSON(http.StatusPaymentRequired, ChallengeResponse{
		Error:   "Payment required",
		Payment: payment,
		Resource: ResourceInfo{
			Path:      resource.Path,
			Available: true,
		},
	})
}

// pricing lists the protected resources and their prices.
func (s *HTTPServer) pricing(c *gin.Context) {
	terms := s.gateway.Terms()

	entries := []PricingEntry{}
	for _, resource := range s.gateway.Resources() {
		entries = append(entries, PricingEntry{
			Path:               resource.Path,
			Description:        resource.Description,
			Amount:             models.FormatAmount(resource.Price, terms.TokenDecimals),
			AmountSmallestUnit: resource.Price.String(),
			Token:              terms.Token,
			Network:            terms.Network,
		})
	}

	c.JSON(http.StatusOK, gin.H{"resources": entries})
}

// crawls returns recent crawl records, optionally filtered by resource path.
func (s *HTTPServer) crawls(c *gin.Context) {
	limit := parseLimit(c.Query("limit"))

	var (
		records []*models.CrawlRecord
		err     error
	)
	if path := c.Query("path"); path != "" {
		records, err = s.store.ByResource(c.Request.Context(), path, limit)
	} else {
		records, err = s.store.Recent(c.Request.Context(), limit)
	}
	if err != nil {
		s.logger.Error("Failed to query crawl records: ", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to query crawl records"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"crawls": records})
}

// earnings returns the per-resource aggregate of paid crawls.
func (s *HTTPServer) earnings(c *gin.Context) {
	earnings, err := s.store.EarningsByResource(c.Request.Context())
	if err != nil {
		s.logger.Error("Failed to aggregate earnings: ", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to aggregate earnings"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"earnings": earnings})
}

// health reports service status and ledger connectivity.
func (s *HTTPServer) health(c *gin.Context) {
	ledgerOK := true
	if _, err := s.ledger.BlockTimestamp(c.Request.Context(), nil); err != nil {
		s.logger.Warn("Ledger health check failed: ", err)
		ledgerOK = false
	}

	status := http.StatusOK
	if !ledgerOK {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{
		"status":  "ok",
		"ledger":  ledgerOK,
		"network": s.gateway.Terms().Network,
	})
}

// extractBearer pulls the token out of an Authorization: Bearer header.
func extractBearer(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func parseLimit(raw string) int {
	const (
		defaultLimit = 50
		maxLimit     = 500
	)
	if raw == "" {
		return defaultLimit
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return defaultLimit
	}
	if limit > maxLimit {
		return maxLimit
	}
	return limit
}
