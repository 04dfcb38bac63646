package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	RateLimitAllowed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "socialhub", Name: "rate_limit_allowed_total", Help: "Number of allowed requests by limiter type."},
		[]string{"limiter"},
	)
	RateLimitRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "socialhub", Name: "rate_limit_rejected_total", Help: "Number of rejected requests by limiter type."},
		[]string{"limiter"},
	)
	TokensIssued = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: "socialhub", Name: "tokens_issued_total", Help: "Number of access tokens issued."},
	)
	TokenIssueErrors = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: "socialhub", Name: "token_issue_errors_total", Help: "Number of failed token issuance attempts."},
	)
	TokenValidations = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "socialhub", Name: "token_validations_total", Help: "Token validation outcomes by result."},
		[]string{"result"},
	)
	Logins = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "socialhub", Name: "logins_total", Help: "Login attempts by outcome."},
		[]string{"outcome"},
	)
	KeyVaultRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "socialhub", Name: "keyvault_requests_total", Help: "Key vault calls by operation and outcome."},
		[]string{"op", "outcome"},
	)
)

func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(RateLimitAllowed)
	reg.MustRegister(RateLimitRejected)
	reg.MustRegister(TokensIssued)
	reg.MustRegister(TokenIssueErrors)
	reg.MustRegister(TokenValidations)
	reg.MustRegister(Logins)
	reg.MustRegister(KeyVaultRequests)
}
