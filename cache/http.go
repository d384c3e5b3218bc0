package cache

import (
	"context"
	"io"
	"net/http"
)

// FetchURL baut eine FetchFunc für einen einfachen GET-Abruf mit
// Fehlerklassifikation: Netzwerkfehler sind transient, Nicht-200-Status
// werden über HTTPStatus eingeordnet.
func FetchURL(client *http.Client, url string) FetchFunc {
	return func(ctx context.Context) ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, Permanent(err)
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", "kidney-genetics-db")

		resp, err := client.Do(req)
		if err != nil {
			return nil, Transient(err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return nil, HTTPStatus(resp.StatusCode)
		}
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, Transient(err)
		}
		return data, nil
	}
}
