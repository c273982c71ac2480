package store

import (
	"context"

	"iap/invcheck/internal/model"
)

// GetStats 计算统计汇总
// 金额合计/均值、风险分布、供应商分布与月度趋势均由 SQL 聚合完成，
// invoice_month 为落库时维护的派生列，避免依赖方言日期函数
func (s *InvoiceStore) GetStats(ctx context.Context) (*model.StatisticsBundle, error) {
	db := s.db.WithContext(ctx)
	bundle := &model.StatisticsBundle{}

	if err := db.Model(&InvoiceRecord{}).Count(&bundle.TotalInvoices).Error; err != nil {
		return nil, err
	}

	if bundle.TotalInvoices > 0 {
		type amountAgg struct {
			Total float64
			Avg   float64
		}
		var agg amountAgg
		err := db.Model(&InvoiceRecord{}).
			Select("COALESCE(SUM(total_amount), 0) AS total, COALESCE(AVG(total_amount), 0) AS avg").
			Scan(&agg).Error
		if err != nil {
			return nil, err
		}
		bundle.TotalAmount = agg.Total
		bundle.AvgAmount = agg.Avg
	}

	err := db.Model(&InvoiceRecord{}).
		Where("risk_level = ?", model.RiskLevelHigh).
		Count(&bundle.HighRiskCount).Error
	if err != nil {
		return nil, err
	}

	err = db.Model(&InvoiceRecord{}).
		Select("vendor_name, COUNT(*) AS invoice_count, COALESCE(SUM(total_amount), 0) AS total_amount").
		Group("vendor_name").
		Order("total_amount DESC").
		Scan(&bundle.ByVendor).Error
	if err != nil {
		return nil, err
	}

	err = db.Model(&InvoiceRecord{}).
		Select("risk_level, COUNT(*) AS count").
		Where("risk_level <> ''").
		Group("risk_level").
		Scan(&bundle.ByRiskLevel).Error
	if err != nil {
		return nil, err
	}

	err = db.Model(&InvoiceRecord{}).
		Select("anomaly_type, COUNT(*) AS count").
		Where("anomaly_type <> ''").
		Group("anomaly_type").
		Scan(&bundle.ByAnomalyType).Error
	if err != nil {
		return nil, err
	}

	err = db.Model(&InvoiceRecord{}).
		Select("invoice_month AS month, COUNT(*) AS invoice_count, COALESCE(SUM(total_amount), 0) AS total_amount").
		Where("invoice_month <> ''").
		Group("invoice_month").
		Order("month ASC").
		Scan(&bundle.MonthlyTrends).Error
	if err != nil {
		return nil, err
	}

	return bundle, nil
}
