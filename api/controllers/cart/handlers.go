package cart

import (
	"context"
	"net/http"

	cartdto "github.com/angelmondragon/rocketcart/api/controllers/cart/dto"
	"github.com/angelmondragon/rocketcart/api/responses"
	"github.com/angelmondragon/rocketcart/api/validators"
	cartsvc "github.com/angelmondragon/rocketcart/internal/cart"
	pkgerrors "github.com/angelmondragon/rocketcart/pkg/errors"
	"github.com/angelmondragon/rocketcart/pkg/logger"
)

const productIDParam = "productID"

// Service is the slice of the cart store the HTTP layer drives.
type Service interface {
	Cart() cartsvc.Cart
	Subscribe(fn cartsvc.Subscriber) func()
	AddProduct(ctx context.Context, productID int64) (cartsvc.Result, error)
	UpdateProductAmount(ctx context.Context, req cartsvc.UpdateAmount) (cartsvc.Result, error)
	RemoveProduct(ctx context.Context, productID int64) (cartsvc.Result, error)
	ClearCart(ctx context.Context) (cartsvc.Result, error)
}

// Catalog lists the products the inventory service knows about.
type Catalog interface {
	ListProducts(ctx context.Context) ([]cartsvc.Product, error)
}

func unavailable() error {
	return pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable")
}

// CartFetch returns the committed cart with totals.
func CartFetch(svc Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable())
			return
		}
		responses.WriteSuccess(w, newCart(svc.Cart()))
	}
}

func CartAddItem(svc Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable())
			return
		}

		var payload cartdto.AddItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.AddProduct(r.Context(), payload.ProductID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newMutation(result))
	}
}

func CartUpdateItem(svc Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable())
			return
		}

		productID, err := validators.ParseIDParam(r, productIDParam)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload cartdto.UpdateItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.UpdateProductAmount(r.Context(), cartsvc.UpdateAmount{
			ProductID: productID,
			Amount:    *payload.Amount,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newMutation(result))
	}
}

func CartRemoveItem(svc Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable())
			return
		}

		productID, err := validators.ParseIDParam(r, productIDParam)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.RemoveProduct(r.Context(), productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newMutation(result))
	}
}

func CartClear(svc Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable())
			return
		}

		result, err := svc.ClearCart(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newMutation(result))
	}
}

// ProductsList proxies the catalog and marks how many of each product the cart holds.
func ProductsList(catalog Catalog, svc Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if catalog == nil || svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable())
			return
		}

		products, err := catalog.ListProducts(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCatalog(products, svc.Cart()))
	}
}
