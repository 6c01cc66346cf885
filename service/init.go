/*
 * @module service/init
 * @description 服务初始化模块，负责分类标准目录与模板定义的启动加载、原子发布与全局服务装配
 * @architecture 分层架构 - 服务层
 * @documentReference dev_docs/backend_requirements.md
 * @stateFlow 应用启动时加载 -> 原子发布快照 -> 可选启动定时刷新 -> 接受请求
 * @rules 目录+模板必须在接受任何请求前加载完成；启动加载失败是进程级致命错误；
 *        运行期重载通过整体快照交换完成，在途请求不受影响
 * @dependencies service/taxonomy, service/template, service/conversion, service/scheduler
 * @refs main, api/controllers
 */

package service

import (
	"fmt"
	"log"
	"log/slog"
	"os"
	"sync/atomic"

	"vsme-xbrl-service/service/conversion"
	"vsme-xbrl-service/service/models"
	"vsme-xbrl-service/service/scheduler"
	"vsme-xbrl-service/service/taxonomy"
	"vsme-xbrl-service/service/template"
)

var (
	// GlobalConversionService 转换流水线编排服务
	GlobalConversionService *conversion.Service

	// GlobalRefreshService 可选的定时刷新调度服务
	GlobalRefreshService *scheduler.RefreshService

	current atomic.Pointer[conversion.Artifacts]

	taxonomyPath string
	templatePath string
)

func init() {
	GlobalConversionService = conversion.NewService(CurrentArtifacts)

	taxonomyPath = os.Getenv("TAXONOMY_PATH")
	templatePath = os.Getenv("TEMPLATE_PATH")
	if taxonomyPath == "" || templatePath == "" {
		// 测试环境下允许延迟装配，main在启动时会强制要求就绪
		slog.Warn("未配置TAXONOMY_PATH/TEMPLATE_PATH，跳过启动加载")
		return
	}

	if err := LoadArtifacts(taxonomyPath, templatePath); err != nil {
		// 启动加载失败是进程级致命错误，不作为请求级错误处理
		log.Fatalf("启动加载失败: %v", err)
	}

	if spec := os.Getenv("TAXONOMY_REFRESH_CRON"); spec != "" {
		GlobalRefreshService = scheduler.NewRefreshService(spec, func() error {
			return LoadArtifacts(taxonomyPath, templatePath)
		})
		if err := GlobalRefreshService.Start(); err != nil {
			log.Fatalf("刷新调度启动失败: %v", err)
		}
	}
}

// CurrentArtifacts 返回当前已发布的目录+模板快照，未就绪时返回nil
func CurrentArtifacts() *conversion.Artifacts {
	return current.Load()
}

// Ready 判断服务是否已完成启动加载
func Ready() bool {
	return current.Load() != nil
}

// LoadArtifacts 加载目录与模板并整体原子发布
// 任一环节失败时不发布，当前快照保持可用
func LoadArtifacts(taxPath, tplPath string) error {
	cat, err := taxonomy.Load(taxPath)
	if err != nil {
		return err
	}
	schema, diags, err := template.Load(tplPath, cat)
	if err != nil {
		return fmt.Errorf("模板定义与目录交叉检查失败: %w", err)
	}
	for _, d := range diags {
		if d.Severity == models.SeverityWarning {
			slog.Warn("模板定义告警", "code", d.Code, "message", d.Message)
		}
	}

	current.Store(&conversion.Artifacts{Catalog: cat, Schema: schema})
	slog.Info("目录与模板已发布",
		"taxonomy", cat.Name,
		"version", cat.Version,
		"concepts", cat.ConceptCount(),
		"template", schema.Name,
		"rules", schema.RuleCount())
	return nil
}

// PublishArtifacts 直接发布一个已构建的快照（测试与嵌入式场景使用）
func PublishArtifacts(art *conversion.Artifacts) {
	current.Store(art)
}
