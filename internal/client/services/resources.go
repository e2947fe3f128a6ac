package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"slices"
)

var ErrUnknownResource = errors.New("unknown resource")

// Resources lists the backend collections the client can address.
var Resources = []string{
	"appointments",
	"consultations",
	"doctors",
	"medical-histories",
	"notifications",
	"patients",
	"payments",
	"reviews",
	"service-types",
	"users",
}

// ResourceService is generic CRUD over the backend collections. Payloads
// are returned as normalized JSON.
type ResourceService interface {
	List(ctx context.Context, resource string, filters url.Values) (json.RawMessage, error)
	Get(ctx context.Context, resource, id string) (json.RawMessage, error)
	Create(ctx context.Context, resource string, body any) (json.RawMessage, error)
	Update(ctx context.Context, resource, id string, body any) (json.RawMessage, error)
	Delete(ctx context.Context, resource, id string) error
}

type resourceService struct {
	api API
}

func NewResourceService(api API) ResourceService {
	return &resourceService{api: api}
}

func (r *resourceService) List(ctx context.Context, resource string, filters url.Values) (json.RawMessage, error) {
	p, err := collection(resource)
	if err != nil {
		return nil, err
	}
	if q := filters.Encode(); q != "" {
		p += "?" + q
	}
	return r.api.Request(ctx, http.MethodGet, p, nil)
}

func (r *resourceService) Get(ctx context.Context, resource, id string) (json.RawMessage, error) {
	p, err := item(resource, id)
	if err != nil {
		return nil, err
	}
	return r.api.Request(ctx, http.MethodGet, p, nil)
}

func (r *resourceService) Create(ctx context.Context, resource string, body any) (json.RawMessage, error) {
	p, err := collection(resource)
	if err != nil {
		return nil, err
	}
	return r.api.Request(ctx, http.MethodPost, p, body)
}

func (r *resourceService) Update(ctx context.Context, resource, id string, body any) (json.RawMessage, error) {
	p, err := item(resource, id)
	if err != nil {
		return nil, err
	}
	return r.api.Request(ctx, http.MethodPut, p, body)
}

func (r *resourceService) Delete(ctx context.Context, resource, id string) error {
	p, err := item(resource, id)
	if err != nil {
		return err
	}
	_, err = r.api.Request(ctx, http.MethodDelete, p, nil)
	return err
}

func collection(resource string) (string, error) {
	if !slices.Contains(Resources, resource) {
		return "", fmt.Errorf("%w: %q", ErrUnknownResource, resource)
	}
	return "/" + resource, nil
}

func item(resource, id string) (string, error) {
	p, err := collection(resource)
	if err != nil {
		return "", err
	}
	if id == "" {
		return "", fmt.Errorf("%s: empty id", resource)
	}
	return p + "/" + url.PathEscape(id), nil
}
