package remote_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/okian/telcoguard/internal/adapters/remote"
	"github.com/okian/telcoguard/internal/domain/model"
	"github.com/shopspring/decimal"
	. "github.com/smartystreets/goconvey/convey"
)

func sampleProfile() model.CustomerProfile {
	return model.CustomerProfile{
		Gender:           "Female",
		SeniorCitizen:    true,
		Partner:          true,
		TenureMonths:     12,
		Contract:         model.ContractMonthToMonth,
		PaymentMethod:    model.PaymentElectronicCheck,
		PaperlessBilling: true,
		MonthlyCharges:   decimal.RequireFromString("70.35"),
		InternetService:  model.InternetFiberOptic,
		PhoneService:     true,
	}.WithDerivedTotal()
}

// provider starts a fake remote provider driven by the given handlers.
func provider(get, post http.HandlerFunc) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != remote.PredictPath {
			http.NotFound(w, r)
			return
		}
		switch r.Method {
		case http.MethodGet:
			get(w, r)
		case http.MethodPost:
			post(w, r)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	}))
}

func okStatus(w http.ResponseWriter, _ *http.Request) {
	_, _ = io.WriteString(w, `{"status":"ok","model_info":{"version":"1.0.0"}}`)
}

func writeBody(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, body)
	}
}

func TestNewClient(t *testing.T) {
	Convey("Given base urls", t, func() {
		c, err := remote.NewClient("http://provider:8000/")
		So(err, ShouldBeNil)
		So(c.Endpoint(), ShouldEqual, "http://provider:8000/api/predict")

		_, err = remote.NewClient("provider:8000")
		So(err, ShouldNotBeNil)
		_, err = remote.NewClient("ftp://provider")
		So(err, ShouldNotBeNil)
	})
}

func TestClient_Probe(t *testing.T) {
	Convey("Given a provider that reports ok", t, func() {
		srv := provider(okStatus, nil)
		defer srv.Close()
		c, err := remote.NewClient(srv.URL)
		So(err, ShouldBeNil)

		status, err := c.Probe(context.Background())
		So(err, ShouldBeNil)
		So(status.Status, ShouldEqual, "ok")
		So(status.ModelInfo["version"], ShouldEqual, "1.0.0")
	})

	Convey("Given a provider that reports an error status", t, func() {
		srv := provider(writeBody(`{"status":"error","message":"models not loaded"}`), nil)
		defer srv.Close()
		c, _ := remote.NewClient(srv.URL)

		_, err := c.Probe(context.Background())
		So(errors.Is(err, remote.ErrRemoteUnavailable), ShouldBeTrue)
	})

	Convey("Given a provider that answers garbage", t, func() {
		srv := provider(writeBody(`<html>`), nil)
		defer srv.Close()
		c, _ := remote.NewClient(srv.URL)

		_, err := c.Probe(context.Background())
		So(errors.Is(err, remote.ErrRemoteUnavailable), ShouldBeTrue)
	})

	Convey("Given a provider that is not listening", t, func() {
		srv := provider(okStatus, nil)
		url := srv.URL
		srv.Close()
		c, _ := remote.NewClient(url)

		_, err := c.Probe(context.Background())
		So(errors.Is(err, remote.ErrRemoteUnavailable), ShouldBeTrue)
	})
}

func TestClient_Predict(t *testing.T) {
	Convey("Given a provider that scores successfully", t, func() {
		var received map[string]any
		srv := provider(okStatus, func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewDecoder(r.Body).Decode(&received)
			writeBody(`{"success":true,"prediction":{"churn":true,"probability":0.71,"score":71,"risk_level":"Crítico"},"model_version":"1.0.0"}`)(w, r)
		})
		defer srv.Close()
		c, _ := remote.NewClient(srv.URL)

		res, err := c.Predict(context.Background(), sampleProfile())

		Convey("Then percent and tier come from the response", func() {
			So(err, ShouldBeNil)
			So(res.ProbabilityPercent, ShouldEqual, 71)
			So(res.Tier, ShouldEqual, model.TierCritical)
			So(res.IsRemote, ShouldBeTrue)
			So(res.Factors, ShouldBeNil)
		})

		Convey("And the request body uses the dataset field names", func() {
			So(received["Contract"], ShouldEqual, "Month-to-month")
			So(received["InternetService"], ShouldEqual, "Fiber optic")
			So(received["PaymentMethod"], ShouldEqual, "Electronic check")
			So(received["SeniorCitizen"], ShouldEqual, float64(1))
			So(received["tenure"], ShouldEqual, float64(12))
			So(received["MonthlyCharges"], ShouldEqual, 70.35)
			So(received["TotalCharges"], ShouldEqual, "844.20")
			So(received["Partner"], ShouldEqual, "Yes")
			So(received["TechSupport"], ShouldEqual, "No")
			for _, f := range remote.RequiredFields {
				So(received, ShouldContainKey, f)
			}
		})
	})

	Convey("Given responses that violate the contract", t, func() {
		cases := map[string]string{
			"success false":   `{"success":false,"error":"boom"}`,
			"no prediction":   `{"success":true}`,
			"no score":        `{"success":true,"prediction":{"risk_level":"Bajo"}}`,
			"score too large": `{"success":true,"prediction":{"score":140,"risk_level":"Bajo"}}`,
			"fractional":      `{"success":true,"prediction":{"score":40.5,"risk_level":"Medio"}}`,
			"unknown level":   `{"success":true,"prediction":{"score":40,"risk_level":"Alto"}}`,
			"not json":        `oops`,
		}
		for name, body := range cases {
			Convey("When the body is "+name, func() {
				srv := provider(okStatus, writeBody(body))
				defer srv.Close()
				c, _ := remote.NewClient(srv.URL)

				_, err := c.Predict(context.Background(), sampleProfile())
				So(errors.Is(err, remote.ErrMalformedRemoteResponse), ShouldBeTrue)
			})
		}
	})

	Convey("Given a provider that fails with 500", t, func() {
		srv := provider(okStatus, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = io.WriteString(w, `{"error":"models not loaded"}`)
		})
		defer srv.Close()
		c, _ := remote.NewClient(srv.URL)

		_, err := c.Predict(context.Background(), sampleProfile())
		So(errors.Is(err, remote.ErrRemoteCallFailed), ShouldBeTrue)
		So(errors.Is(err, remote.ErrRemoteTimeout), ShouldBeFalse)
	})

	Convey("Given a provider slower than the call timeout", t, func() {
		release := make(chan struct{})
		srv := provider(okStatus, func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-release:
			case <-r.Context().Done():
			}
		})
		defer srv.Close()
		defer close(release)
		c, _ := remote.NewClient(srv.URL, remote.WithCallTimeout(50*time.Millisecond))

		start := time.Now()
		_, err := c.Predict(context.Background(), sampleProfile())

		Convey("Then the call fails as a timeout within the bound", func() {
			So(errors.Is(err, remote.ErrRemoteCallFailed), ShouldBeTrue)
			So(errors.Is(err, remote.ErrRemoteTimeout), ShouldBeTrue)
			So(time.Since(start), ShouldBeLessThan, 2*time.Second)
		})
	})
}
