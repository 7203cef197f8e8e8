// Package server wires the application services to an HTTP router.
package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tabkeeper/tabkeeper/internal/auth"
	"github.com/tabkeeper/tabkeeper/internal/service"
)

// Services bundles the application services the router exposes.
type Services struct {
	Auth     *service.AuthService
	Groups   *service.GroupService
	Expenses *service.ExpenseService
}

// New builds the gin engine with all routes and middleware attached.
func New(services Services, jwtManager *auth.JWTManager) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), RequestLogger())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	authHandler := NewAuthHandler(services.Auth)
	groupHandler := NewGroupHandler(services.Groups)
	expenseHandler := NewExpenseHandler(services.Expenses)

	v1 := r.Group("/v1")
	{
		v1.POST("/auth/register", authHandler.Register)
		v1.POST("/auth/login", authHandler.Login)
	}

	authed := v1.Group("")
	authed.Use(RequireAuth(jwtManager))
	{
		authed.GET("/me", authHandler.Me)

		authed.POST("/groups", groupHandler.CreateGroup)
		authed.GET("/groups/:id", groupHandler.GetGroup)
		authed.PATCH("/groups/:id", groupHandler.RenameGroup)
		authed.POST("/groups/:id/members", groupHandler.AddMember)

		authed.POST("/groups/:id/expenses", expenseHandler.AddExpense)
		authed.GET("/groups/:id/expenses", expenseHandler.ListExpenses)
		authed.GET("/groups/:id/debts", expenseHandler.GetDebts)

		authed.GET("/expenses/:id", expenseHandler.GetExpense)
		authed.PATCH("/expenses/:id", expenseHandler.UpdateExpense)
	}

	return r
}
