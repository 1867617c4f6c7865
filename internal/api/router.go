package api

import (
	"ClubVote/internal/service"

	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

// RouterOptions 路由装配所需依赖
type RouterOptions struct {
	Events      *service.EventService
	Directory   *service.DirectoryService
	Logger      *logrus.Logger
	Gatherer    prometheus.Gatherer // 为 nil 时不暴露指标
	MetricsPath string
	Pprof       bool
}

// NewRouter 注册全部 API 路由
func NewRouter(opts RouterOptions) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), RequestLogger(opts.Logger))

	if opts.Pprof {
		// 注册ppof 方便调试和监测性能问题
		pprof.Register(r)
	}
	if opts.Gatherer != nil {
		path := opts.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		r.GET(path, gin.WrapH(promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{})))
	}

	eventHandler := NewEventHandler(opts.Events, opts.Logger)
	chainHandler := NewChainHandler(opts.Events, opts.Logger)
	dirHandler := NewDirectoryHandler(opts.Directory, opts.Events, opts.Logger)

	apiGroup := r.Group("/api")
	apiGroup.GET("/dashboard", dirHandler.Dashboard)

	// 本地选举活动
	events := apiGroup.Group("/events")
	events.GET("", eventHandler.ListEvents)
	events.POST("", eventHandler.CreateEvent)
	events.GET("/ongoing", eventHandler.ListOngoing)
	events.GET("/:id", eventHandler.GetEvent)
	events.PUT("/:id", eventHandler.UpdateEvent)
	events.DELETE("/:id", eventHandler.DeleteEvent)
	events.POST("/:id/publish", eventHandler.PublishEvent)
	events.POST("/:id/line-items", eventHandler.AddLineItem)
	events.DELETE("/:id/line-items/:index", eventHandler.RemoveLineItem)
	events.PUT("/:id/line-items/:index/position", eventHandler.SetLineItemPosition)
	events.GET("/:id/line-items/:index/candidates", eventHandler.CandidateOptions)
	events.POST("/:id/line-items/:index/candidates/:candidate_id/toggle", eventHandler.ToggleCandidate)

	// 链上投票活动
	chainGroup := apiGroup.Group("/chain")
	chainGroup.GET("/status", chainHandler.Status)
	chainGroup.POST("/connect", chainHandler.Connect)
	chainGroup.GET("/events", chainHandler.ListEvents)
	chainGroup.POST("/events", chainHandler.CreateEvent)
	chainGroup.POST("/events/:id/finalize", chainHandler.FinalizeEvent)

	clubs := apiGroup.Group("/clubs")
	clubs.GET("", dirHandler.ListClubs)
	clubs.POST("", dirHandler.CreateClub)
	clubs.GET("/:id", dirHandler.GetClub)
	clubs.PATCH("/:id", dirHandler.UpdateClub)
	clubs.DELETE("/:id", dirHandler.DeleteClub)

	candidates := apiGroup.Group("/candidates")
	candidates.GET("", dirHandler.ListCandidates)
	candidates.POST("", dirHandler.CreateCandidate)
	candidates.PATCH("/:id", dirHandler.UpdateCandidate)
	candidates.DELETE("/:id", dirHandler.DeleteCandidate)

	applications := apiGroup.Group("/applications")
	applications.GET("", dirHandler.ListApplications)
	applications.POST("", dirHandler.SubmitApplication)
	applications.POST("/:id/approve", dirHandler.ApproveApplication)
	applications.POST("/:id/reject", dirHandler.RejectApplication)
	applications.DELETE("/:id", dirHandler.DeleteApplication)

	return r
}
