package resilience

import (
	"context"

	"go.uber.org/zap"

	"notechan/pkg/logger"
)

// ServiceResilience объединяет Circuit Breaker и Retry для вызовов одного ресурса.
type ServiceResilience struct {
	serviceName    string
	circuitBreaker *CircuitBreaker
	retry          *Retry
}

// NewServiceResilience создает новую обертку отказоустойчивости для ресурса.
func NewServiceResilience(serviceName string, breaker CircuitBreakerConfig, retry RetryConfig) *ServiceResilience {
	return &ServiceResilience{
		serviceName:    serviceName,
		circuitBreaker: NewCircuitBreaker(serviceName, breaker),
		retry:          NewRetry(serviceName, retry),
	}
}

// ExecuteWithResilience выполняет операцию с повторами под защитой Circuit Breaker.
// Серия повторов считается для Circuit Breaker одним вызовом.
func (r *ServiceResilience) ExecuteWithResilience(
	ctx context.Context,
	operationName string,
	operation func() error,
) error {
	log := logger.Log(ctx).With(
		zap.String("service", r.serviceName),
		zap.String("operation", operationName),
	)
	log.Debug(ctx, "executing operation with resilience")

	return r.circuitBreaker.Execute(ctx, func() error {
		return r.retry.Execute(ctx, operation)
	})
}

// State возвращает состояние Circuit Breaker.
func (r *ServiceResilience) State() CircuitState {
	return r.circuitBreaker.GetState()
}
