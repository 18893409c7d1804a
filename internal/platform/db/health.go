package db

import (
	"context"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
)

type healthResponse struct {
	Status string     `json:"status"`
	Error  string     `json:"error,omitempty"`
	Pool   poolStatus `json:"pool"`
}

// poolStatus is the pool-utilization slice of the health payload.
type poolStatus struct {
	TotalConns    int32 `json:"total_conns"`
	IdleConns     int32 `json:"idle_conns"`
	AcquiredConns int32 `json:"acquired_conns"`
	MaxConns      int32 `json:"max_conns"`
}

// HealthHandler reports database connectivity and pool utilization. A failed
// ping yields 503 so load balancers stop routing to this instance.
func HealthHandler(pool *pgxpool.Pool) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), pingTimeout)
		defer cancel()

		stat := pool.Stat()
		resp := healthResponse{
			Status: "healthy",
			Pool: poolStatus{
				TotalConns:    stat.TotalConns(),
				IdleConns:     stat.IdleConns(),
				AcquiredConns: stat.AcquiredConns(),
				MaxConns:      stat.MaxConns(),
			},
		}

		if err := pool.Ping(ctx); err != nil {
			resp.Status = "unhealthy"
			resp.Error = err.Error()
			return c.JSON(http.StatusServiceUnavailable, resp)
		}
		return c.JSON(http.StatusOK, resp)
	}
}
