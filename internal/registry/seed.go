package registry

import (
	"fmt"
	"time"

	"github.com/zqshi/metricstd/internal/metric"
)

var seedDate = time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)

func seedGovernance() metric.Governance {
	return metric.Governance{
		Owner:          "metrics-governance",
		ReviewCycle:    metric.ReviewQuarterly,
		LastReviewed:   seedDate.Format(time.DateOnly),
		ApprovalStatus: metric.ApprovalApproved,
		Approvers:      []string{"data-platform"},
		ApprovalDate:   seedDate.Format(time.DateOnly),
	}
}

func seed() *metric.Builder {
	return metric.NewBuilder(metric.WithClock(func() time.Time { return seedDate })).
		Governance(seedGovernance()).
		Version("1.0.0")
}

var (
	percentFormat  = metric.Format{Display: metric.DisplayPercentage, Suffix: "%"}
	durationFormat = metric.Format{Display: metric.DisplayDuration, Suffix: "ms"}
	countFormat    = metric.Format{Display: metric.DisplayNumber, ThousandsSeparator: true}
	usdFormat      = metric.Format{Display: metric.DisplayCurrency, Prefix: "$", ThousandsSeparator: true}
)

// DefaultDefinitions returns the standard definition set. Each call builds
// fresh values.
func DefaultDefinitions() []*metric.Definition {
	builders := []*metric.Builder{
		seed().
			ID("business_agent_successRate").Name("successRate").DisplayName("Success Rate").
			Category(metric.CategoryBusiness).Level(metric.LevelCoreBusiness).
			Domain("agent", "task").
			Description("Share of agent tasks that completed successfully").
			Formula("successfulTasks / totalTasks * 100 (0 when totalTasks is zero)").
			Unit(metric.UnitPercentage).DataType(metric.DataTypeFloat).Format(percentFormat).
			Precision(2).Range(0, 100).
			Thresholds(metric.QualityThresholds{Excellent: 95, Good: 90, Warning: 80, Critical: 70}).
			Tags("core", "kpi", "business").
			DerivedMetrics("quality_agent_failureRate"),

		seed().
			ID("quality_agent_failureRate").Name("failureRate").DisplayName("Failure Rate").
			Category(metric.CategoryQuality).Level(metric.LevelCoreBusiness).
			Domain("agent", "task").
			Description("Share of agent tasks that ended in failure").
			Formula("failedTasks / totalTasks * 100 (0 when totalTasks is zero)").
			Unit(metric.UnitPercentage).DataType(metric.DataTypeFloat).Format(percentFormat).
			Precision(2).Range(0, 100).Direction(metric.LowerIsBetter).
			Thresholds(metric.QualityThresholds{Excellent: 10, Good: 5, Warning: 3, Critical: 1}).
			Tags("core", "quality").
			Dependencies("business_agent_successRate"),

		seed().
			ID("performance_api_responseTime").Name("responseTime").DisplayName("Response Time").
			Category(metric.CategoryPerformance).Level(metric.LevelSupportingAnalysis).
			Domain("api").
			Description("Time from request receipt to the last response byte").
			Formula("responseEnd - requestStart").
			Unit(metric.UnitMilliseconds).DataType(metric.DataTypeInteger).Format(durationFormat).
			Precision(0).Direction(metric.LowerIsBetter).
			Thresholds(metric.QualityThresholds{Excellent: 3000, Good: 1000, Warning: 500, Critical: 200}).
			Tags("performance", "technical").
			DerivedMetrics("performance_api_avgResponseTime"),

		seed().
			ID("performance_api_avgResponseTime").Name("avgResponseTime").DisplayName("Average Response Time").
			Category(metric.CategoryPerformance).Level(metric.LevelSupportingAnalysis).
			Domain("api").
			Description("Mean response time over the reporting window").
			Formula("sum(responseTime) / requestCount (0 when requestCount is zero)").
			Unit(metric.UnitMilliseconds).DataType(metric.DataTypeFloat).Format(durationFormat).
			Precision(1).Direction(metric.LowerIsBetter).
			Thresholds(metric.QualityThresholds{Excellent: 2000, Good: 800, Warning: 400, Critical: 150}).
			Tags("performance", "technical").
			Dependencies("performance_api_responseTime"),

		seed().
			ID("user_session_totalSessions").Name("totalSessions").DisplayName("Total Sessions").
			Category(metric.CategoryUser).Level(metric.LevelSupportingAnalysis).
			Domain("session").
			Description("Number of distinct sessions started in the window").
			Formula("count(distinct sessionId)").
			Unit(metric.UnitCount).DataType(metric.DataTypeInteger).Format(countFormat).
			Precision(0).
			Thresholds(metric.QualityThresholds{Excellent: 10000, Good: 5000, Warning: 1000, Critical: 100}).
			Tags("user", "business"),

		seed().
			ID("user_engagement_activeUserCount").Name("activeUserCount").DisplayName("Active Users").
			Category(metric.CategoryUser).Level(metric.LevelCoreBusiness).
			Domain("engagement", "session").
			Description("Distinct users with at least one session in the window").
			Formula("count(distinct userId)").
			Unit(metric.UnitCount).DataType(metric.DataTypeInteger).Format(countFormat).
			Precision(0).
			Thresholds(metric.QualityThresholds{Excellent: 5000, Good: 2000, Warning: 500, Critical: 50}).
			Tags("core", "user", "kpi"),

		seed().
			ID("cost_llm_totalCost").Name("totalCost").DisplayName("Total Cost").
			Category(metric.CategoryCost).Level(metric.LevelCoreBusiness).
			Domain("llm", "infrastructure").
			Description("Model token spend plus infrastructure spend").
			Formula("sum(tokenCost) + sum(infraCost)").
			Unit(metric.UnitUSD).DataType(metric.DataTypeFloat).Format(usdFormat).
			Precision(2).Direction(metric.LowerIsBetter).
			Thresholds(metric.QualityThresholds{Excellent: 5000, Good: 1000, Warning: 500, Critical: 100}).
			Tags("cost", "business").
			DerivedMetrics("cost_llm_costPerRequest"),

		seed().
			ID("cost_llm_costPerRequest").Name("costPerRequest").DisplayName("Cost per Request").
			Category(metric.CategoryCost).Level(metric.LevelSupportingAnalysis).
			Domain("llm").
			Description("Average spend attributed to one request").
			Formula("totalCost / requestCount (0 when requestCount is zero)").
			Unit(metric.UnitUSD).DataType(metric.DataTypeFloat).Format(usdFormat).
			Precision(4).Direction(metric.LowerIsBetter).
			Thresholds(metric.QualityThresholds{Excellent: 0.5, Good: 0.1, Warning: 0.05, Critical: 0.01}).
			Tags("cost").
			Dependencies("cost_llm_totalCost"),

		seed().
			ID("system_api_errorCount").Name("errorCount").DisplayName("Error Count").
			Category(metric.CategorySystem).Level(metric.LevelTechnicalMonitoring).
			Domain("api").
			Description("Responses with a server error status").
			Formula("count(responses where status >= 500)").
			Unit(metric.UnitCount).DataType(metric.DataTypeInteger).Format(countFormat).
			Precision(0).Direction(metric.LowerIsBetter).
			Thresholds(metric.QualityThresholds{Excellent: 100, Good: 50, Warning: 10, Critical: 0}).
			Tags("system", "monitoring"),

		seed().
			ID("system_platform_availabilityRate").Name("availabilityRate").DisplayName("Availability").
			Category(metric.CategorySystem).Level(metric.LevelCoreBusiness).
			Domain("platform").
			Description("Share of the window during which the service answered health checks").
			Formula("uptimeSeconds / totalSeconds * 100 (0 when totalSeconds is zero)").
			Unit(metric.UnitPercentage).DataType(metric.DataTypeFloat).Format(percentFormat).
			Precision(3).Range(0, 100).
			Thresholds(metric.QualityThresholds{Excellent: 99.9, Good: 99.5, Warning: 99, Critical: 95}).
			Tags("core", "system", "monitoring"),

		seed().
			ID("quality_feedback_satisfactionScore").Name("satisfactionScore").DisplayName("Satisfaction Score").
			Category(metric.CategoryQuality).Level(metric.LevelSupportingAnalysis).
			Domain("feedback").
			Description("Mean user rating on a one to five scale").
			Formula("sum(rating) / ratingCount (0 when ratingCount is zero)").
			Unit(metric.UnitScore).DataType(metric.DataTypeFloat).Format(metric.Format{Display: metric.DisplayNumber}).
			Precision(2).Range(1, 5).
			Thresholds(metric.QualityThresholds{Excellent: 4.5, Good: 4, Warning: 3.5, Critical: 3}).
			Tags("quality", "user"),
	}

	defs := make([]*metric.Definition, 0, len(builders))
	for _, b := range builders {
		def, err := b.Build()
		if err != nil {
			panic(fmt.Sprintf("invalid seed definition: %v", err))
		}
		defs = append(defs, def)
	}
	return defs
}
