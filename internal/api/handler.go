package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/adeelraza/income-backoffice/internal/models"
	"github.com/adeelraza/income-backoffice/internal/service"
	"github.com/adeelraza/income-backoffice/internal/utils"
	"github.com/gin-gonic/gin"
)

// Handler holds the API handlers and their dependencies
type Handler struct {
	svc service.Service
	log *utils.Logger
}

// NewHandler creates a new API handler
func NewHandler(svc service.Service, log *utils.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

// SetupRoutes registers all routes on the router
func (h *Handler) SetupRoutes(router *gin.Engine) {
	// Public auth routes
	auth := router.Group("/auth")
	{
		auth.POST("/login", h.Login)
		auth.POST("/register", h.Register)
	}

	// Public branch listings
	router.GET("/branch", h.GetBranches)
	router.GET("/branch/all", h.GetBranchesWithManagers)

	// Protected branch routes
	branch := router.Group("/branch")
	branch.Use(AuthMiddleware())
	{
		branch.GET("/withManagers", h.GetActiveBranchesWithManagers)
		branch.GET("/user/:userId", h.GetBranchByUser)
		branch.GET("/manager/:userId", h.GetBranchAndManagerByUser)
		branch.POST("", h.CreateBranch)
		branch.POST("/update/:id", h.UpdateBranch)
		branch.GET("/delete/:id", h.DeleteBranch)
	}

	user := router.Group("/user")
	user.Use(AuthMiddleware())
	{
		user.GET("", h.GetUsers)
		user.GET("/:id", h.GetUser)
		user.GET("/branch/:branchId", h.GetUsersByBranch)
		user.POST("/update/:userId", h.UpdateUser)
		user.GET("/delete/:userId", h.DeleteUser)
	}

	income := router.Group("/income")
	income.Use(AuthMiddleware())
	{
		income.POST("", h.AddIncome)
		income.POST("/update/:incomeId", h.UpdateIncome)
		income.GET("", h.GetAllIncome)
		income.GET("/branch/:branchId", h.GetBranchIncome)
		income.GET("/user/:userId", h.GetUserIncome)
		income.GET("/my", h.GetMyIncome)
		income.GET("/delete/:id", h.DeleteIncome)
	}

	reports := router.Group("")
	reports.Use(AuthMiddleware())
	{
		reports.POST("/getDashboardData", h.GetDashboardData)
		reports.POST("/missingIncome", h.MissingIncome)
		reports.GET("/checkIncome/:userId", h.CheckIncome)
	}
}

// respondError converts a service failure into the response envelope
func (h *Handler) respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError

	switch {
	case errors.Is(err, service.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, service.ErrUnauthorized):
		status = http.StatusUnauthorized
	case errors.Is(err, service.ErrForbidden):
		status = http.StatusForbidden
	default:
		h.log.Error("internal error: %v", err)
		c.JSON(status, models.Envelope{Success: false, Error: "Internal server error"})
		return
	}

	c.JSON(status, models.Envelope{Success: false, Error: err.Error()})
}

func (h *Handler) badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, models.Envelope{Success: false, Error: msg})
}

// intQuery parses an optional integer query parameter; 0 means absent
func intQuery(c *gin.Context, name string) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return 0, true
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return value, true
}

// Auth handlers
func (h *Handler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "Please provide email and password")
		return
	}

	resp, err := h.svc.Login(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *Handler) Register(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "Please provide name, email and password")
		return
	}

	user, err := h.svc.Register(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, models.Envelope{Success: true, Data: user, Msg: "User created"})
}

// User handlers
func (h *Handler) GetUsers(c *gin.Context) {
	users, err := h.svc.GetUsers(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.Envelope{Success: true, Data: users, Msg: "All Users Fetched"})
}

func (h *Handler) GetUser(c *gin.Context) {
	user, err := h.svc.GetUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.Envelope{Success: true, Data: user, Msg: "User Fetched"})
}

func (h *Handler) GetUsersByBranch(c *gin.Context) {
	users, err := h.svc.GetUsersByBranch(c.Request.Context(), c.Param("branchId"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.Envelope{Success: true, Data: users, Msg: "User Fetched"})
}

func (h *Handler) UpdateUser(c *gin.Context) {
	var req models.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "Invalid request body")
		return
	}

	user, err := h.svc.UpdateUser(c.Request.Context(), c.Param("userId"), req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.Envelope{Success: true, Data: user, Msg: "User updated successfully"})
}

func (h *Handler) DeleteUser(c *gin.Context) {
	user, err := h.svc.DeactivateUser(c.Request.Context(), c.Param("userId"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.Envelope{Success: true, Data: user, Msg: "User deleted successfully"})
}

// Branch handlers
func (h *Handler) GetBranches(c *gin.Context) {
	branches, err := h.svc.GetBranches(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.Envelope{Success: true, Data: branches, Msg: "All Branches Fetched"})
}

func (h *Handler) GetBranchesWithManagers(c *gin.Context) {
	branches, err := h.svc.GetBranchesWithManagers(c.Request.Context(), false)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.Envelope{Success: true, Data: branches, Msg: "All Branches Fetched"})
}

func (h *Handler) GetActiveBranchesWithManagers(c *gin.Context) {
	branches, err := h.svc.GetBranchesWithManagers(c.Request.Context(), true)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.Envelope{
		Success: true,
		Data:    branches,
		Msg:     "All Branches with Managers Fetched Successfully",
	})
}

func (h *Handler) GetBranchByUser(c *gin.Context) {
	branch, err := h.svc.GetBranchByUser(c.Request.Context(), c.Param("userId"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.Envelope{Success: true, Data: branch, Msg: "Branch fetched successfully"})
}

func (h *Handler) GetBranchAndManagerByUser(c *gin.Context) {
	detail, err := h.svc.GetBranchAndManagerByUser(c.Request.Context(), c.Param("userId"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.Envelope{
		Success: true,
		Data:    detail,
		Msg:     "Branch and manager fetched successfully",
	})
}

func (h *Handler) CreateBranch(c *gin.Context) {
	var req models.CreateBranchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "Please provide name and code")
		return
	}

	branch, err := h.svc.CreateBranch(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, models.Envelope{Success: true, Data: branch, Msg: "Branch Created"})
}

func (h *Handler) UpdateBranch(c *gin.Context) {
	var req models.UpdateBranchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "Invalid request body")
		return
	}

	branch, err := h.svc.UpdateBranch(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.Envelope{Success: true, Data: branch, Msg: "Branch updated successfully"})
}

func (h *Handler) DeleteBranch(c *gin.Context) {
	branch, err := h.svc.DeactivateBranch(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.Envelope{Success: true, Data: branch, Msg: "Branch deleted successfully"})
}

// Income handlers
func (h *Handler) AddIncome(c *gin.Context) {
	var req models.AddIncomeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "Invalid request body")
		return
	}

	income, err := h.svc.AddIncome(c.Request.Context(), identityFromContext(c), req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, models.Envelope{Success: true, Data: income, Msg: "Income added successfully"})
}

func (h *Handler) UpdateIncome(c *gin.Context) {
	var req models.UpdateIncomeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "Invalid request body")
		return
	}

	income, err := h.svc.UpdateIncome(c.Request.Context(), identityFromContext(c), c.Param("incomeId"), req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.Envelope{Success: true, Data: income, Msg: "Income updated successfully"})
}

func (h *Handler) DeleteIncome(c *gin.Context) {
	income, err := h.svc.DeleteIncome(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.Envelope{Success: true, Data: income, Msg: "Income deleted successfully"})
}

func (h *Handler) GetAllIncome(c *gin.Context) {
	year, ok := intQuery(c, "year")
	if !ok {
		h.badRequest(c, "Invalid year")
		return
	}
	month, ok := intQuery(c, "month")
	if !ok {
		h.badRequest(c, "Invalid month")
		return
	}

	resp, err := h.svc.GetAllIncome(c.Request.Context(), year, month, c.Query("branch"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *Handler) GetBranchIncome(c *gin.Context) {
	year, ok := intQuery(c, "year")
	if !ok {
		h.badRequest(c, "Invalid year")
		return
	}
	month, ok := intQuery(c, "month")
	if !ok {
		h.badRequest(c, "Invalid month")
		return
	}

	resp, err := h.svc.GetBranchIncome(c.Request.Context(), c.Param("branchId"), year, month)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *Handler) GetUserIncome(c *gin.Context) {
	h.userIncome(c, c.Param("userId"))
}

// GetMyIncome is the user rollup scoped to the caller's own identity
func (h *Handler) GetMyIncome(c *gin.Context) {
	h.userIncome(c, identityFromContext(c).UserID)
}

func (h *Handler) userIncome(c *gin.Context, userID string) {
	year, ok := intQuery(c, "year")
	if !ok {
		h.badRequest(c, "Invalid year")
		return
	}
	month, ok := intQuery(c, "month")
	if !ok {
		h.badRequest(c, "Invalid month")
		return
	}

	resp, err := h.svc.GetUserIncome(c.Request.Context(), userID, year, month)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Reporting handlers
func (h *Handler) GetDashboardData(c *gin.Context) {
	data, err := h.svc.GetDashboard(c.Request.Context(), identityFromContext(c))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.Envelope{
		Success: true,
		Data:    data,
		Msg:     "Dashboard data fetched successfully.",
	})
}

func (h *Handler) MissingIncome(c *gin.Context) {
	var req models.MissingIncomeRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.badRequest(c, "Invalid request body")
			return
		}
	}

	report, err := h.svc.MissingIncomeReport(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.Envelope{
		Success: true,
		Data:    report,
		Msg:     "Missing income report fetched successfully.",
	})
}

func (h *Handler) CheckIncome(c *gin.Context) {
	exists, err := h.svc.CheckIncome(c.Request.Context(), c.Param("userId"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "incomeExists": exists})
}
