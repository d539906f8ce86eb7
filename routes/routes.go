package routes

import (
	"database/sql"
	"net/http"

	"github.com/gin-gonic/gin"

	"go-soilwater/config"
	"go-soilwater/controllers"
	"go-soilwater/middleware"
	"go-soilwater/pipeline"
	"go-soilwater/repository"
)

// SetupRouter 配置所有路由
func SetupRouter(db *sql.DB, p *pipeline.Pipeline, auth config.AuthConfig) *gin.Engine {
	return newRouter(p, repository.NewRecordStore(db), repository.NewOperatorStore(db), auth)
}

func newRouter(p *pipeline.Pipeline, records controllers.RecordRepository, operators controllers.OperatorRepository, auth config.AuthConfig) *gin.Engine {
	r := gin.Default()

	// 创建控制器实例
	authController := controllers.NewAuthController(operators, auth.JWTSecret, auth.TokenTTL)
	taskController := controllers.NewTaskController(p, records)
	calibrationController := controllers.NewCalibrationController(p, records)

	// 公共路由
	public := r.Group("/")
	{
		public.GET("/healthz", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok", "tasks": p.Tasks()})
		})

		// 操作员认证相关路由
		public.POST("/register", authController.Register)
		public.POST("/login", authController.Login)
	}

	// 需要认证的路由
	protected := r.Group("/")
	protected.Use(middleware.AuthMiddleware(auth.JWTSecret))
	{
		// 估算任务
		protected.POST("/tasks/:task", taskController.RunTask)
		protected.GET("/records", taskController.GetRecords)
		protected.GET("/record", taskController.GetRecord)

		// 传感器标定
		protected.POST("/calibrations", calibrationController.SaveCalibration)
		protected.GET("/calibrations", calibrationController.GetCalibrations)
	}

	return r
}
