/*
 * @module service/scheduler/refresh_service
 * @description 分类标准刷新调度服务，按cron表达式定期重载目录与模板并原子换新
 * @architecture 分层架构 - 业务服务层
 * @documentReference dev_docs/backend_requirements.md
 * @stateFlow cron触发 -> 重载构建 -> 成功则原子交换 / 失败保留旧快照
 * @rules 重载绝不原地修改在途请求可见的数据；失败不影响当前服务能力
 * @dependencies github.com/robfig/cron/v3
 * @refs service/init, service/taxonomy, service/template
 */

package scheduler

import (
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// RefreshService 周期性刷新调度器
type RefreshService struct {
	cron   *cron.Cron
	spec   string
	reload func() error
}

// NewRefreshService 创建刷新调度器
// spec为标准cron表达式（5字段）；reload执行一次完整的重载与原子交换
func NewRefreshService(spec string, reload func() error) *RefreshService {
	return &RefreshService{
		cron:   cron.New(),
		spec:   spec,
		reload: reload,
	}
}

// Start 注册刷新任务并启动调度
func (s *RefreshService) Start() error {
	_, err := s.cron.AddFunc(s.spec, func() {
		if err := s.reload(); err != nil {
			slog.Error("定时刷新失败，保留当前快照", "error", err)
			return
		}
		slog.Info("定时刷新完成")
	})
	if err != nil {
		return fmt.Errorf("注册刷新任务失败: %w", err)
	}
	s.cron.Start()
	slog.Info("分类标准刷新调度已启动", "spec", s.spec)
	return nil
}

// Stop 停止调度，等待在途任务完成
func (s *RefreshService) Stop() {
	if s.cron != nil {
		ctx := s.cron.Stop()
		<-ctx.Done()
	}
}
