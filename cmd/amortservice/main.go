package main

import (
	"io"
	"log"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jiangshenghai57/amortengine/amortization"
	"github.com/jiangshenghai57/amortengine/appliedpayment"
	"github.com/jiangshenghai57/amortengine/calendar"
	"github.com/jiangshenghai57/amortengine/config"
	"github.com/jiangshenghai57/amortengine/fees"
	"github.com/jiangshenghai57/amortengine/interest"
	"github.com/jiangshenghai57/amortengine/money"
	"github.com/jiangshenghai57/amortengine/quote"
	"github.com/jiangshenghai57/amortengine/schedule"
	"github.com/jiangshenghai57/amortengine/unitperiod"
)

var (
	runs       = map[string]quote.Schedule{}
	mu         sync.RWMutex // protects runs
	workerPool = make(chan struct{}, 100)
)

// quoteRequest is the wire representation of a getQuote call. Domain
// types (calendar.Date, money.Cent) don't carry JSON tags of their
// own, so the HTTP boundary translates to/from these plain fields.
type quoteRequest struct {
	LoanID         string  `json:"loan_id"`
	StartDate      string  `json:"start_date"` // "2006-01-02"
	PrincipalCents int64   `json:"principal_cents"`
	MonthlyCount   int     `json:"monthly_count"`
	AnnualRatePct  float64 `json:"annual_rate_pct"`
	AsOfDate       string  `json:"as_of_date"`
	SettlementDay  int     `json:"settlement_day"`
}

func parseDate(s string) (calendar.Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return calendar.Date{}, err
	}
	return calendar.FromTime(t), nil
}

func getServiceInfo(c *gin.Context) {
	info := gin.H{
		"service":     "amortservice",
		"description": "Personal loan amortisation schedule and settlement quote service",
		"version":     "1.0.0",
		"endpoints": gin.H{
			"GET /info":     "Get service information and capabilities",
			"POST /quotes":  "Compute a settlement quote for a loan as of a given day",
			"GET /runs/:id": "Retrieve a previously computed schedule run",
		},
		"capabilities": []string{
			"Amortisation schedule generation with directed rounding",
			"Daily and lifetime interest caps",
			"Pro-rata fee refunds on early settlement",
			"Settlement quote generation",
		},
	}
	c.IndentedJSON(http.StatusOK, info)
}

func getRun(c *gin.Context) {
	id := c.Param("id")
	mu.RLock()
	run, ok := runs[id]
	mu.RUnlock()
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no such run"})
		return
	}
	c.IndentedJSON(http.StatusOK, run)
}

func postQuote(c *gin.Context) {
	var req quoteRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON"})
		log.Printf("error binding quote request: %v", err)
		return
	}

	start, err := parseDate(req.StartDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid start_date"})
		return
	}
	asOf, err := parseDate(req.AsOfDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid as_of_date"})
		return
	}

	monthly, err := unitperiod.NewMonthly(1, start.Year(), start.Month(), start.Day())
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	params := quote.Params{
		StartDate:   start,
		Principal:   money.Cent(req.PrincipalCents),
		ScheduleCfg: schedule.NewAutoGenerate(schedule.AutoGenerateConfig{UnitPeriod: monthly, Count: req.MonthlyCount}),
		PaymentCfg:  amortization.PaymentConfig{Rounding: money.Up},
		FeeCfg:      fees.FeeConfig{},
		ChargeCfg:   fees.ChargeConfig{},
		InterestCfg: interest.Config{StandardRate: money.NewAnnualRate(money.NewPercentFromFloat(req.AnnualRatePct / 100))},
	}

	settlementDay := calendar.OffsetDay(req.SettlementDay)
	if settlementDay == 0 {
		settlementDay = calendar.ToOffsetDay(start, asOf)
	}

	correlationID := uuid.New().String()
	log.Printf("correlation=%s loan=%s computing quote as of day %d", correlationID, req.LoanID, settlementDay)

	resultCh := make(chan quote.Quote, 1)
	errCh := make(chan error, 1)

	go func() {
		workerPool <- struct{}{}
		defer func() { <-workerPool }()

		q, err := quote.GetQuote(
			appliedpayment.IntendedPurpose{Kind: appliedpayment.SettlementOn, SettlementDay: settlementDay},
			params, nil, settlementDay,
		)
		if err != nil {
			errCh <- err
			return
		}
		resultCh <- q
	}()

	select {
	case err := <-errCh:
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error(), "correlation_id": correlationID})
		return
	case q := <-resultCh:
		mu.Lock()
		runs[correlationID] = q.RevisedSchedule
		mu.Unlock()

		resp := gin.H{
			"correlation_id": correlationID,
			"loan_id":        req.LoanID,
			"quote_result":   quoteResultKindString(q.Result.Kind),
		}
		if q.Result.Kind == quote.PaymentQuoteKind {
			resp["payment_value_cents"] = int64(q.Result.Quote.PaymentValue)
			resp["apportionment"] = gin.H{
				"principal_cents": int64(q.Result.Quote.Apportionment.Principal),
				"fees_cents":      int64(q.Result.Quote.Apportionment.Fees),
				"interest_cents":  int64(q.Result.Quote.Apportionment.Interest),
				"charges_cents":   int64(q.Result.Quote.Apportionment.Charges),
			}
			resp["fees_refund_if_settled_cents"] = int64(q.Result.Quote.FeesRefundIfSettled)
		}
		c.JSON(http.StatusOK, resp)
	}
}

func quoteResultKindString(k quote.QuoteResultKind) string {
	switch k {
	case quote.PaymentQuoteKind:
		return "PaymentQuote"
	case quote.AwaitPaymentConfirmation:
		return "AwaitPaymentConfirmation"
	case quote.UnableToGenerateQuote:
		return "UnableToGenerateQuote"
	default:
		return "Unknown"
	}
}

func multiLog() *gin.Engine {
	cfg, _ := config.ReadConfig()

	logPath, _ := cfg["LOG_PATH"].(string)
	logFile, _ := cfg["LOG_FILE"].(string)

	f, _ := os.Create(logPath + logFile)

	mw := io.MultiWriter(f, os.Stdout)

	gin.DefaultWriter = mw
	gin.DefaultErrorWriter = mw
	log.Println(cfg)

	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	router := gin.Default()

	return router
}

func main() {
	router := multiLog()
	router.GET("/info", getServiceInfo)
	router.GET("/runs/:id", getRun)
	router.POST("/quotes", postQuote)

	router.Run("localhost:8080")
}
