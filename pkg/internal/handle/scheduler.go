package handle

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/assetvault/pkg/internal/types"
	"github.com/yeisme/assetvault/pkg/middleware"
	"github.com/yeisme/assetvault/pkg/scheduler"
)

// SchedulerJobs 返回全部定时任务的状态.
//
//	@Summary	定时任务
//	@Tags		scheduler
//	@Produce	json
//	@Success	200	{object}	map[string][]scheduler.JobInfo
//	@Router		/api/v1/scheduler/jobs [get]
func SchedulerJobs(c *gin.Context) {
	sched := middleware.GetScheduler(c)
	if sched == nil {
		c.JSON(http.StatusOK, gin.H{"jobs": []scheduler.JobInfo{}})
		return
	}

	c.JSON(http.StatusOK, gin.H{"jobs": sched.Jobs()})
}

// SchedulerRunJob 立即执行一次指定任务.
//
//	@Summary	立即执行任务
//	@Tags		scheduler
//	@Produce	json
//	@Security	APIKey
//	@Param		name	path		string	true	"任务名"
//	@Success	202		{object}	map[string]string
//	@Failure	404		{object}	types.ErrorResponse
//	@Router		/api/v1/scheduler/jobs/{name}/run [post]
func SchedulerRunJob(c *gin.Context) {
	sched := middleware.GetScheduler(c)
	if sched == nil {
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, types.ErrorResponse{Error: "scheduler not running"})
		return
	}

	name := c.Param("name")
	if err := sched.RunNow(name); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, scheduler.ErrJobNotFound) {
			status = http.StatusNotFound
		}

		c.AbortWithStatusJSON(status, types.ErrorResponse{Error: err.Error()})

		return
	}

	c.JSON(http.StatusAccepted, gin.H{"job": name, "status": "triggered"})
}
