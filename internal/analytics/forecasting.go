package analytics

import (
	"context"
	"fmt"
	"math/cmplx"
	"time"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/mat"

	mathutil "github.com/inferloop/healthtrack/internal/utils/math"
	"github.com/inferloop/healthtrack/pkg/constants"
	"github.com/inferloop/healthtrack/pkg/errors"
	"github.com/inferloop/healthtrack/pkg/interfaces"
	"github.com/inferloop/healthtrack/pkg/models"
)

// Singular values below rcond times the largest are treated as zero
const rcond = 1e-10

// Fits whose AR roots reach this modulus are treated as non-stationary
const stationarityBound = 1 - 1e-6

// Estimators recorded on ARIMAFit.Method
const (
	EstimatorLeastSquares = "conditional_least_squares"
	EstimatorYuleWalker   = "yule_walker"
)

// ForecastEngine fits an ARIMA(p,d,0) model per call and extrapolates it
type ForecastEngine struct {
	config    *Config
	artifacts interfaces.ArtifactStore
	logger    *logrus.Logger
	now       func() time.Time
}

// ARIMAFit holds fitted autoregressive parameters
type ARIMAFit struct {
	Order        models.ModelOrder `json:"order"`
	Coefficients []float64         `json:"coefficients"`
	Mean         float64           `json:"mean"`
	Residual     float64           `json:"residual_variance"`
	Observations int               `json:"observations"`
	Method       string            `json:"method"`
	Radius       float64           `json:"spectral_radius"`
}

// NewForecastEngine creates a new forecast engine. artifacts may be nil.
func NewForecastEngine(config *Config, artifacts interfaces.ArtifactStore, logger *logrus.Logger) *ForecastEngine {
	if logger == nil {
		logger = logrus.New()
	}

	return &ForecastEngine{
		config:    config.orDefault(),
		artifacts: artifacts,
		logger:    logger,
		now:       time.Now,
	}
}

// WithClock replaces the wall clock used to date predictions
func (e *ForecastEngine) WithClock(now func() time.Time) *ForecastEngine {
	if now != nil {
		e.now = now
	}
	return e
}

// Forecast predicts horizonDays daily values following series. Points are
// treated as evenly spaced regardless of their calendar gaps.
func (e *ForecastEngine) Forecast(ctx context.Context, series *models.PreparedSeries, horizonDays int) (*models.ForecastResult, error) {
	if series.Len() < e.config.MinDataPoints {
		return nil, errors.NewInsufficientDataError(
			fmt.Sprintf("at least %d data points are required for prediction, got %d", e.config.MinDataPoints, series.Len()))
	}

	if horizonDays < constants.MinHorizonDays {
		return nil, errors.NewValidationError(errors.CodeOutOfRange, "forecast horizon must be at least one day")
	}

	values := series.Values()
	start := time.Now()

	fit, err := FitARIMA(values, e.config.AROrder, e.config.DiffOrder)
	if err != nil {
		return nil, err
	}

	forecasts, err := fit.Predict(values, horizonDays)
	if err != nil {
		return nil, err
	}

	today := e.now()
	predictions := make([]models.ForecastPoint, horizonDays)
	for i, v := range forecasts {
		predictions[i] = models.ForecastPoint{
			Date:  today.AddDate(0, 0, i+1).Format(time.RFC3339),
			Value: v,
		}
	}

	current := values[len(values)-1]
	end := forecasts[len(forecasts)-1]

	result := &models.ForecastResult{
		Metric:              series.Metric,
		Predictions:         predictions,
		CurrentWeight:       current,
		PredictionEndWeight: end,
		WeightChange:        end - current,
		Order:               fit.Order,
		Coefficients:        fit.Coefficients,
	}

	e.logger.WithFields(logrus.Fields{
		"metric":      series.Metric,
		"data_points": len(values),
		"horizon":     horizonDays,
		"estimator":   fit.Method,
		"duration":    time.Since(start),
	}).Info("Forecast completed")

	saveArtifact(ctx, e.artifacts, e.logger, &models.ModelArtifact{
		Name:       constants.ArtifactWeightPrediction,
		Metric:     series.Metric,
		FittedAt:   today,
		DataPoints: len(values),
		Parameters: map[string]interface{}{
			"order":             fit.Order,
			"coefficients":      fit.Coefficients,
			"mean":              fit.Mean,
			"residual_variance": fit.Residual,
			"method":            fit.Method,
			"spectral_radius":   fit.Radius,
		},
	})

	return result, nil
}

// FitARIMA estimates AR coefficients of the d-times differenced values by
// conditional least squares. With d = 0 the series is mean-centred first;
// otherwise no constant is fitted. The minimum-norm solution is used when the
// lag matrix is rank deficient. A least-squares fit with a root on or outside
// the unit circle is replaced by the Yule-Walker estimate, which is stationary.
func FitARIMA(values []float64, p, d int) (*ARIMAFit, error) {
	if !mathutil.AllFinite(values) {
		return nil, errors.NewModelFitError("arima", fmt.Errorf("series contains non-finite values"))
	}

	diffed := mathutil.Difference(values, d)
	n := len(diffed)
	if n <= p {
		return nil, errors.NewModelFitError("arima",
			fmt.Errorf("%d observations after differencing cannot support %d lags", n, p))
	}

	fit := &ARIMAFit{
		Order:        models.ModelOrder{P: p, D: d, Q: 0},
		Coefficients: make([]float64, p),
		Observations: n,
		Method:       EstimatorLeastSquares,
	}

	centred := make([]float64, n)
	if d == 0 {
		fit.Mean = mathutil.Mean(diffed)
	}
	for i, v := range diffed {
		centred[i] = v - fit.Mean
	}

	if p == 0 {
		fit.Residual = meanSquare(centred)
		return fit, nil
	}

	rows := n - p
	X := mat.NewDense(rows, p, nil)
	y := mat.NewVecDense(rows, nil)
	for t := p; t < n; t++ {
		for lag := 1; lag <= p; lag++ {
			X.Set(t-p, lag-1, centred[t-lag])
		}
		y.SetVec(t-p, centred[t])
	}

	var svd mat.SVD
	if ok := svd.Factorize(X, mat.SVDThin); !ok {
		return nil, errors.NewModelFitError("arima", fmt.Errorf("SVD factorization did not converge"))
	}

	if rank := svd.Rank(rcond); rank > 0 {
		var beta mat.VecDense
		svd.SolveVecTo(&beta, y, rank)
		for i := 0; i < p; i++ {
			fit.Coefficients[i] = beta.AtVec(i)
		}
	}

	if !mathutil.AllFinite(fit.Coefficients) {
		return nil, errors.NewModelFitError("arima", fmt.Errorf("least squares produced non-finite coefficients"))
	}

	radius, err := SpectralRadius(fit.Coefficients)
	if err != nil {
		return nil, errors.NewModelFitError("arima", err)
	}

	if radius >= stationarityBound {
		fit.Coefficients = yuleWalker(centred, p)
		fit.Method = EstimatorYuleWalker

		radius, err = SpectralRadius(fit.Coefficients)
		if err != nil {
			return nil, errors.NewModelFitError("arima", err)
		}
		if radius >= stationarityBound {
			return nil, errors.NewModelFitError("arima",
				fmt.Errorf("no stationary AR(%d) fit, spectral radius %.4f", p, radius))
		}
	}
	fit.Radius = radius

	var fitted mat.VecDense
	fitted.MulVec(X, mat.NewVecDense(p, fit.Coefficients))
	residuals := make([]float64, rows)
	for i := range residuals {
		residuals[i] = y.AtVec(i) - fitted.AtVec(i)
	}
	fit.Residual = meanSquare(residuals)

	return fit, nil
}

// SpectralRadius returns the largest eigenvalue modulus of the AR companion
// matrix. The recursion is stationary iff it is below 1.
func SpectralRadius(coefficients []float64) (float64, error) {
	p := len(coefficients)
	if p == 0 {
		return 0, nil
	}

	companion := mat.NewDense(p, p, nil)
	for j, c := range coefficients {
		companion.Set(0, j, c)
	}
	for i := 1; i < p; i++ {
		companion.Set(i, i-1, 1)
	}

	var eig mat.Eigen
	if ok := eig.Factorize(companion, mat.EigenNone); !ok {
		return 0, fmt.Errorf("eigen decomposition of the companion matrix did not converge")
	}

	radius := 0.0
	for _, v := range eig.Values(nil) {
		if m := cmplx.Abs(v); m > radius {
			radius = m
		}
	}
	return radius, nil
}

// yuleWalker solves the Yule-Walker equations with the Levinson-Durbin
// recursion over the biased autocovariances of x. Lags past a vanishing
// prediction error stay zero.
func yuleWalker(x []float64, p int) []float64 {
	n := len(x)
	acov := make([]float64, p+1)
	for k := 0; k <= p && k < n; k++ {
		sum := 0.0
		for t := k; t < n; t++ {
			sum += x[t] * x[t-k]
		}
		acov[k] = sum / float64(n)
	}

	phi := make([]float64, p)
	if acov[0] == 0 {
		return phi
	}

	prev := make([]float64, p)
	sigma := acov[0]
	for k := 1; k <= p; k++ {
		acc := acov[k]
		for j := 1; j < k; j++ {
			acc -= prev[j-1] * acov[k-j]
		}
		reflection := acc / sigma

		phi[k-1] = reflection
		for j := 1; j < k; j++ {
			phi[j-1] = prev[j-1] - reflection*prev[k-j-1]
		}

		sigma *= 1 - reflection*reflection
		if sigma <= 0 {
			break
		}
		copy(prev, phi)
	}

	return phi
}

// Predict extends history by steps values using the fitted recursion
func (f *ARIMAFit) Predict(history []float64, steps int) ([]float64, error) {
	diffed := mathutil.Difference(history, f.Order.D)
	p := f.Order.P

	extended := make([]float64, len(diffed), len(diffed)+steps)
	for i, v := range diffed {
		extended[i] = v - f.Mean
	}

	forecasts := make([]float64, steps)
	for h := 0; h < steps; h++ {
		next := 0.0
		for lag := 1; lag <= p; lag++ {
			idx := len(extended) - lag
			if idx >= 0 {
				next += f.Coefficients[lag-1] * extended[idx]
			}
		}
		extended = append(extended, next)
		forecasts[h] = next + f.Mean
	}

	levels := mathutil.Integrate(forecasts, history, f.Order.D)
	if !mathutil.AllFinite(levels) {
		return nil, errors.NewModelFitError("arima", fmt.Errorf("forecast diverged to non-finite values"))
	}

	return levels, nil
}

func meanSquare(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v * v
	}
	return sum / float64(len(values))
}
