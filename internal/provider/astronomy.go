package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
)

// ErrAstronomyNotConfigured is returned when the astronomy API
// credentials are absent from the environment.
var ErrAstronomyNotConfigured = errors.New("astronomy API credentials not configured")

// MoonPhase holds lunar data for one location and day
type MoonPhase struct {
	Phase           string  `json:"phase"`
	Illumination    float64 `json:"illumination"`
	Age             float64 `json:"age"`
	Distance        float64 `json:"distance"`
	AngularDiameter float64 `json:"angular_diameter"`
}

type astronomyResponse struct {
	Data struct {
		Table struct {
			Rows []struct {
				Cells []struct {
					Distance struct {
						FromEarth struct {
							KM string `json:"km"`
						} `json:"fromEarth"`
					} `json:"distance"`
					ExtraInfo struct {
						Phase struct {
							String       string `json:"string"`
							Fraction     string `json:"fraction"`
							AngularDiam  string `json:"angularDiameter"`
							AgeInDegrees string `json:"age"`
						} `json:"phase"`
					} `json:"extraInfo"`
				} `json:"cells"`
			} `json:"rows"`
		} `json:"table"`
	} `json:"data"`
}

// AstronomyClient fetches moon phase data from the AstronomyAPI
type AstronomyClient struct {
	baseURL   string
	appID     string
	appSecret string
	client    *http.Client
	log       *zap.Logger
}

func NewAstronomyClient(baseURL, appID, appSecret string, timeout time.Duration, log *zap.Logger) *AstronomyClient {
	if log == nil {
		log = zap.NewNop()
	}
	return &AstronomyClient{
		baseURL:   baseURL,
		appID:     appID,
		appSecret: appSecret,
		client:    &http.Client{Timeout: timeout},
		log:       log,
	}
}

// Configured reports whether API credentials are present
func (c *AstronomyClient) Configured() bool {
	return c.appID != "" && c.appSecret != ""
}

// GetMoonPhase fetches today's moon phase for the given coordinates
func (c *AstronomyClient) GetMoonPhase(ctx context.Context, lat, lon float64) (*MoonPhase, error) {
	if !c.Configured() {
		return nil, ErrAstronomyNotConfigured
	}

	today := time.Now().UTC().Format("2006-01-02")
	params := url.Values{}
	params.Set("latitude", fmt.Sprintf("%.4f", lat))
	params.Set("longitude", fmt.Sprintf("%.4f", lon))
	params.Set("elevation", "0")
	params.Set("from_date", today)
	params.Set("to_date", today)
	params.Set("time", "12:00:00")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/bodies/positions/moon?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(c.appID, c.appSecret)

	resp, err := c.client.Do(req)
	if err != nil {
		c.log.Error("astronomy API request failed", zap.Error(err))
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.log.Error("astronomy API returned non-200", zap.Int("status", resp.StatusCode))
		return nil, fmt.Errorf("astronomy API status %d", resp.StatusCode)
	}

	var payload astronomyResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		c.log.Error("failed to parse astronomy response", zap.Error(err))
		return nil, err
	}

	rows := payload.Data.Table.Rows
	if len(rows) == 0 || len(rows[0].Cells) == 0 {
		return nil, errors.New("astronomy response contained no moon data")
	}
	cell := rows[0].Cells[0]

	moon := &MoonPhase{Phase: cell.ExtraInfo.Phase.String}
	if f, err := parsePercent(cell.ExtraInfo.Phase.Fraction); err == nil {
		moon.Illumination = f
	}
	if f, err := parseNumber(cell.ExtraInfo.Phase.AgeInDegrees); err == nil {
		// Age arrives in degrees of the synodic cycle; displays want days
		moon.Age = f / 360 * 29.53
	}
	if f, err := parseNumber(cell.Distance.FromEarth.KM); err == nil {
		moon.Distance = f
	}
	if f, err := parseNumber(cell.ExtraInfo.Phase.AngularDiam); err == nil {
		moon.AngularDiameter = f
	}
	return moon, nil
}

func parseNumber(s string) (float64, error) {
	var f float64
	_, err := fmt.Sscanf(s, "%f", &f)
	return f, err
}

// parsePercent converts a 0..1 fraction string to a percentage
func parsePercent(s string) (float64, error) {
	f, err := parseNumber(s)
	if err != nil {
		return 0, err
	}
	return f * 100, nil
}
