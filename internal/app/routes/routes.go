package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/aurcc/bonafide-portal/internal/app/access"
	"github.com/aurcc/bonafide-portal/internal/app/controllers"
	"github.com/aurcc/bonafide-portal/internal/app/views"
	"github.com/aurcc/bonafide-portal/internal/middleware"
)

// Controllers groups the page handlers wired into the router
type Controllers struct {
	Auth           *controllers.AuthController
	Public         *controllers.PublicController
	Student        *controllers.StudentController
	Review         *controllers.ReviewController
	Dean           *controllers.DeanController
	StudentRecords *controllers.StudentRecordsController
	Departments    *controllers.DepartmentController
	Hostels        *controllers.HostelController
	Wardens        *controllers.WardenController
}

// SetupRouter configures all application routes.
// uploadLimit caps the body of the multipart forms.
func SetupRouter(router *gin.Engine, ctl Controllers, pages *middleware.SessionMiddleware, uploadLimit int64) {
	upload := middleware.LimitBody(uploadLimit)

	router.StaticFS("/static", views.Static())
	router.GET("/healthz", ctl.Public.Health)

	// --- Public routes ---
	router.GET("/", ctl.Auth.Root)
	router.GET(access.LoginPath, ctl.Auth.LoginPage)
	router.POST(access.LoginPath, ctl.Auth.Login)
	router.POST("/logout", ctl.Auth.Logout)
	router.GET("/unauthorized", ctl.Auth.Unauthorized)

	router.GET("/verify", ctl.Public.VerifyPage)
	router.GET("/verify/:code", ctl.Public.VerifyCode)
	router.POST("/verify", ctl.Public.Verify)

	// Forced password change; the only page a flagged session can reach
	password := router.Group("/change-password")
	password.Use(pages.RequirePasswordChange())
	{
		password.GET("", ctl.Auth.ChangePasswordPage)
		password.POST("", ctl.Auth.ChangePassword)
	}

	// --- Student subtree ---
	student := router.Group(access.Student{}.Home())
	student.Use(pages.RequireRole(access.Student{}))
	{
		student.GET("", ctl.Student.Dashboard)
		student.GET("/apply", ctl.Student.ApplyPage)
		student.POST("/apply", upload, ctl.Student.Apply)
		student.GET("/requests", ctl.Student.Requests)
		student.GET("/requests/:id/download", ctl.Student.Download)
		student.GET("/profile", ctl.Student.Profile)
	}

	// --- Warden subtree ---
	warden := access.Warden{}
	wardenGroup := router.Group(warden.Home())
	wardenGroup.Use(pages.RequireRole(warden))
	{
		wardenGroup.GET("", ctl.Review.WardenDashboard)
		wardenGroup.GET("/pending", ctl.Review.Pending(warden))
		wardenGroup.POST("/review/:id", ctl.Review.Review(warden))
		wardenGroup.GET("/requests", ctl.Review.Requests(warden))
		wardenGroup.GET("/audit-logs", ctl.Review.Audit(warden))
	}

	// --- Dean subtree ---
	dean := access.Dean{}
	deanGroup := router.Group(dean.Home())
	deanGroup.Use(pages.RequireRole(dean))
	{
		deanGroup.GET("", ctl.Review.DeanDashboard)
		deanGroup.GET("/pending", ctl.Review.Pending(dean))
		deanGroup.POST("/review/:id", ctl.Review.Review(dean))
		deanGroup.GET("/requests", ctl.Review.Requests(dean))
		deanGroup.GET("/requests/export.csv", ctl.Review.ExportRequests(dean))
		deanGroup.GET("/requests/:id/download", ctl.Review.Download(dean))
		deanGroup.GET("/audit-logs", ctl.Review.Audit(dean))
		deanGroup.GET("/audit-logs/export.csv", ctl.Review.ExportAudit(dean))

		deanGroup.GET("/settings", ctl.Dean.Settings)
		deanGroup.POST("/settings", ctl.Dean.UpdateSettings)
		deanGroup.GET("/academic-year", ctl.Dean.AcademicYear)
		deanGroup.POST("/academic-year", ctl.Dean.UpdateAcademicYear)
		deanGroup.GET("/profile", ctl.Dean.Profile)
		deanGroup.POST("/profile", ctl.Dean.UpdateProfile)

		students := deanGroup.Group("/students")
		{
			students.GET("", ctl.StudentRecords.Students)
			students.POST("", ctl.StudentRecords.CreateStudent)
			students.GET("/new", ctl.StudentRecords.NewStudent)
			students.GET("/upload", ctl.StudentRecords.BulkUploadPage)
			students.POST("/upload", upload, ctl.StudentRecords.BulkUpload)
			students.GET("/upload/template.csv", ctl.StudentRecords.UploadTemplate)
			students.GET("/:id/edit", ctl.StudentRecords.EditStudent)
			students.POST("/:id", ctl.StudentRecords.UpdateStudent)
			students.POST("/:id/password", ctl.StudentRecords.ResetPassword)
			students.POST("/:id/delete", ctl.StudentRecords.DeleteStudent)
		}

		wardens := deanGroup.Group("/wardens")
		{
			wardens.GET("", ctl.Wardens.Wardens)
			wardens.POST("", ctl.Wardens.CreateWarden)
			wardens.GET("/:id/edit", ctl.Wardens.EditWarden)
			wardens.POST("/:id", ctl.Wardens.UpdateWarden)
			wardens.POST("/:id/password", ctl.Wardens.ResetPassword)
			wardens.POST("/:id/delete", ctl.Wardens.DeleteWarden)
		}

		departments := deanGroup.Group("/departments")
		{
			departments.GET("", ctl.Departments.Departments)
			departments.POST("", ctl.Departments.SaveDepartment)
			departments.POST("/:id", ctl.Departments.SaveDepartment)
			departments.POST("/:id/delete", ctl.Departments.DeleteDepartment)
		}

		hostels := deanGroup.Group("/hostels")
		{
			hostels.GET("", ctl.Hostels.Hostels)
			hostels.POST("", ctl.Hostels.SaveHostel)
			hostels.POST("/:id", ctl.Hostels.SaveHostel)
		}

		accounts := deanGroup.Group("/bank-accounts")
		{
			accounts.GET("", ctl.Hostels.BankAccounts)
			accounts.POST("", ctl.Hostels.SaveBankAccount)
			accounts.POST("/:id", ctl.Hostels.SaveBankAccount)
			accounts.POST("/:id/delete", ctl.Hostels.DeleteBankAccount)
		}

		fees := deanGroup.Group("/fees")
		{
			fees.GET("", ctl.Hostels.Fees)
			fees.POST("", ctl.Hostels.SaveFee)
			fees.POST("/:id", ctl.Hostels.SaveFee)
			fees.POST("/:id/delete", ctl.Hostels.DeleteFee)
		}
	}

	router.NoRoute(pages.NotFound())
}
