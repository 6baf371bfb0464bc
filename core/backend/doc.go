/*
Package backend implements the storefront REST API

A backend serves the product catalog, the solar project gallery and the gas
price singleton from a store.Store. Reads are public, writes require an
identity which passes the access.Gate.

Routes

All paths are relative to the router passed to the Builder, the service mounts
it under /api.

	/products              GET ?category=   list, newest first
	/products              POST             create (admin)
	/products              PUT    {id,...}  replace (admin)
	/products              PATCH  {id,stock} stock only (admin)
	/products              DELETE {id}      delete (admin)
	/solar-projects        GET ?q=          list, newest first
	/solar-projects        POST             create (admin), 201
	/solar-projects        PUT    {id,...}  partial update (admin)
	/solar-projects        DELETE {id}      delete (admin)
	/gas-price             GET              seeded with the default price on first read
	/gas-price             PATCH  {price}   (admin)
	/shop/products         GET              filtered and sorted product list
	/shops                 GET              shop directory with opening state
	/solar/estimate        POST             solar load estimate
	/admin/statistics      GET              catalog statistics (admin)
	/version               GET              build version (admin)

Errors

Every error response has the form

	{"error": "message", "fields": [...], "allowed": [...]}

with status 400 for invalid payloads, 401 if the caller is not an admin,
404 for unknown ids and 500 for store failures. Authorization is checked
before the payload is looked at.

Change notifications

If the Builder carries a core.Notifier, it is called after every successful
write with the JSON of the written entity. A failing or panicking notifier is
logged and does not affect the response.

GET responses of the lists and the gas price carry an Etag header and honor
If-None-Match.
*/
package backend
