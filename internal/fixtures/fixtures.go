// Package fixtures holds the storefront's demo catalogue: users, listings,
// conversations, offers and notifications used by cmd/seed and tests.
package fixtures

import (
	"fmt"
	"time"

	"github.com/shinyyama/mercado-backend/internal/model"
	"github.com/shinyyama/mercado-backend/internal/pricing"
)

// DemoUID is the signed-in user of the demo storefront.
const DemoUID = "user-1"

type Dataset struct {
	Categories    []model.Category
	Users         []model.User
	Products      []model.Product
	Favorites     []model.Favorite
	Conversations []model.Conversation
	Messages      []model.Message
	States        []model.ConversationState
	Offers        []model.Offer
	Notifications []model.Notification
}

var categories = []struct{ slug, name string }{
	{"clothing", "Ropa"},
	{"electronics", "Electrónica"},
	{"home", "Hogar"},
	{"sports", "Deportes"},
	{"toys", "Juegos"},
	{"books", "Libros"},
	{"other", "Otros"},
}

type place struct {
	label    string
	lat, lng float64
}

var (
	palermo      = place{"Palermo, Buenos Aires", -34.5889, -58.4306}
	capital      = place{"Capital Federal, Buenos Aires", -34.6037, -58.3816}
	cordoba      = place{"Córdoba Capital, Córdoba", -31.4201, -64.1888}
	rosario      = place{"Rosario, Santa Fe", -32.9442, -60.6505}
	mendoza      = place{"Mendoza Capital, Mendoza", -32.8895, -68.8458}
	marDelPlata  = place{"Mar del Plata, Buenos Aires", -38.0055, -57.5426}
	recoleta     = place{"Recoleta, Buenos Aires", -34.5875, -58.3974}
	belgrano     = place{"Belgrano, Buenos Aires", -34.5627, -58.4583}
	vicenteLopez = place{"Vicente López, Buenos Aires", -34.5266, -58.4793}
	laPlata      = place{"La Plata, Buenos Aires", -34.9214, -57.9545}
	colegiales   = place{"Colegiales, Buenos Aires", -34.5737, -58.4487}
	villaUrquiza = place{"Villa Urquiza, Buenos Aires", -34.5722, -58.4877}
)

type userSeed struct {
	uid, name, email, avatar string
	at                       place
	rating                   float64
	sales                    int
	badge                    string
}

var users = []userSeed{
	{DemoUID, "Lucía Fernández", "lucia@example.com", "3763188", capital, 4.8, 24, "Gran Salame"},
	{"user-2", "Martín Rodríguez", "martin@example.com", "2379004", villaUrquiza, 4.6, 17, "Picado Fino"},
	{"user-3", "Ana Gómez", "ana@example.com", "1520760", colegiales, 4.9, 32, "Gran Salame"},
	{"user-4", "Gabriel López", "gabriel@example.com", "220453", recoleta, 4.7, 8, "Picado Fino"},
	{"user-5", "Carolina Vázquez", "carolina@example.com", "1239291", laPlata, 4.5, 11, "Picado Fino"},
	{"user-6", "Alejandro Martínez", "alejandro@example.com", "91227", vicenteLopez, 5.0, 21, "Gran Salame"},
}

type productSeed struct {
	title, description string
	price              int64 // whole pesos
	minOffer           int64 // whole pesos, 0 = manual offers
	category           string
	at                 place
	age                time.Duration
	seller             string
	condition          string
	fast, secure       bool
	photos             []string
}

const day = 24 * time.Hour

// Listed in product id order starting at 1.
var products = []productSeed{
	{
		title:       "Campera de Cuero Vintage",
		description: "Campera de cuero genuino en excelente estado. Talle M, levemente usada pero sin daños. Perfecta para el otoño. Solo entrego en zona Palermo.",
		price:       45000, category: "clothing", at: palermo, age: 2 * day, seller: "user-2",
		fast: true, secure: true, photos: []string{"2887766", "6770027", "6046220"},
	},
	{
		title:       "iPhone 13 Pro - 256GB",
		description: "iPhone 13 Pro color grafito con 256GB de almacenamiento. Comprado el año pasado, en perfecto estado sin rayones. Salud de batería al 92%. Viene con cargador y caja originales.",
		price:       550000, category: "electronics", at: cordoba, age: 7 * day, seller: "user-3",
		fast: true, secure: true, photos: []string{"404280", "699122", "1092644"},
	},
	{
		title:       "Mesa de Comedor con 4 Sillas",
		description: "Mesa de comedor de madera maciza con 4 sillas a juego. Dimensiones de la mesa: 150cm x 90cm. Algunos rasguños menores en la superficie, pero en general en buen estado. Se debe retirar por domicilio, no hacemos envíos.",
		price:       120000, category: "home", at: rosario, age: 3 * day, seller: "user-4",
		secure: true, photos: []string{"6207809", "6207827", "6207759"},
	},
	{
		title:       "Bicicleta Montaña - Venzo",
		description: "Bicicleta de montaña Venzo, modelo 2022. Rodado 29, 24 velocidades, frenos a disco hidráulicos. Recientemente se cambió cadena y pastillas de freno. Excelente estado general con algo de desgaste normal.",
		price:       190000, category: "sports", at: mendoza, age: 5 * day, seller: "user-5",
		photos: []string{"100582", "1149601", "2158963"},
	},
	{
		title:       "Nintendo Switch con Juegos",
		description: "Consola Nintendo Switch (modelo más reciente) con base de carga, todos los cables y dos controles Joy-Con. También incluye 3 juegos: Mario Kart 8, Zelda BOTW y Animal Crossing. Todo funciona perfectamente.",
		price:       220000, minOffer: 200000, category: "electronics", at: marDelPlata, age: day, seller: "user-6",
		condition: "Excelente", photos: []string{"371924", "1174746", "442576"},
	},
	{
		title:       "Colección de Discos de Vinilo Clásicos",
		description: "Colección de 25 discos de vinilo clásicos de los años 70 y 80. Incluye álbumes de Soda Stereo, Charly García, Luis Alberto Spinetta, Queen y más. Todos en buenas condiciones con mínimas marcas de uso.",
		price:       75000, minOffer: 65000, category: "other", at: palermo, age: 4 * day, seller: DemoUID,
		condition: "Usado", photos: []string{"3104587", "3972359", "1626481"},
	},
	{
		title:       "Laptop Lenovo ThinkPad X1",
		description: "Laptop Lenovo ThinkPad X1 Carbon, Intel Core i7, 16GB RAM, 512GB SSD. Excelente estado. La batería dura 6+ horas. Incluye cargador original.",
		price:       480000, category: "electronics", at: recoleta, age: 5 * day, seller: "user-4",
		fast: true, secure: true, photos: []string{"18105", "129208", "705164"},
	},
	{
		title:       "Zapatillas Nike Air Max",
		description: "Zapatillas Nike Air Max originales, talle 42, color negro con detalles blancos. Nuevas en caja, sin uso.",
		price:       85000, category: "clothing", at: belgrano, age: day, seller: "user-5",
		fast: true, secure: true, photos: []string{"2529148", "2529146", "2529147"},
	},
	{
		title:       "Lámpara de Pie Moderna",
		description: "Lámpara de pie moderna estilo nórdico. Base de madera y pantalla de tela beige. Altura 1.65m. Perfecta para sala de estar o dormitorio.",
		price:       42000, category: "home", at: palermo, age: 6 * day, seller: "user-3",
		secure: true, photos: []string{"2082090", "2062431", "1112598"},
	},
	{
		title:       "Raqueta de Tenis Wilson",
		description: "Raqueta de tenis Wilson Pro Staff 97, empuñadura L3. Usada 5 veces, como nueva. Incluye funda original.",
		price:       65000, category: "sports", at: vicenteLopez, age: 2 * day, seller: "user-6",
		fast: true, secure: true, photos: []string{"209977", "2553533", "3660204"},
	},
	{
		title:       "Auriculares Sony WH-1000XM4",
		description: "Auriculares inalámbricos Sony con cancelación de ruido. Como nuevos, apenas usados. Incluye estuche, cable y todos los accesorios originales.",
		price:       120000, category: "electronics", at: laPlata, age: day, seller: "user-5",
		fast: true, secure: true, photos: []string{"577769", "1649771", "343457"},
	},
	{
		title:       "Guitarra Eléctrica Fender Stratocaster",
		description: "Guitarra Fender Stratocaster mexicana del 2019. Color sunburst, excelente estado. Incluye funda rígida y cable.",
		price:       350000, category: "other", at: belgrano, age: 5 * day, seller: "user-6",
		secure: true, photos: []string{"164694", "1407322", "165971"},
	},
	{
		title:       "Monitor Gaming 27\" 144Hz",
		description: "Monitor gaming 27 pulgadas, 144Hz, 1ms, FreeSync. En perfecto estado, sin pixeles muertos. Ideal para gaming competitivo.",
		price:       170000, category: "electronics", at: recoleta, age: 14 * day, seller: "user-4",
		fast: true, secure: true, photos: []string{"1029757", "4792729", "4792738"},
	},
	{
		title:       "Cafetera Italiana Bialetti",
		description: "Cafetera italiana Bialetti para 6 tazas. Usada pocas veces, en perfecto estado.",
		price:       28000, category: "home", at: colegiales, age: 3 * day, seller: "user-3",
		photos: []string{"6802983", "6802985", "4226896"},
	},
	{
		title:       "Pack de 3 Libros Harry Potter",
		description: "Pack de los primeros 3 libros de Harry Potter en español. Excelente estado, como nuevos.",
		price:       15000, category: "books", at: villaUrquiza, age: day, seller: "user-2",
		fast: true, secure: true, photos: []string{"1148399", "1005324", "2846814"},
	},
}

// PhotoURL is the catalogue's image CDN address for a photo id.
func PhotoURL(id string) string {
	return fmt.Sprintf("https://images.pexels.com/photos/%s/pexels-photo-%s.jpeg?auto=compress&cs=tinysrgb&w=600", id, id)
}

// cents converts the catalogue's whole-peso prices to stored minor units.
func cents(pesos int64) int64 {
	return pesos * 100
}

// Build materialises the dataset with timestamps relative to now.
func Build(now time.Time) Dataset {
	now = now.UTC()
	var ds Dataset
	for i, c := range categories {
		ds.Categories = append(ds.Categories, model.Category{Slug: c.slug, Name: c.name, Position: i + 1})
	}
	for _, u := range users {
		lat, lng := u.at.lat, u.at.lng
		ds.Users = append(ds.Users, model.User{
			UID:             u.uid,
			Name:            u.name,
			Email:           u.email,
			AvatarURL:       PhotoURL(u.avatar),
			Location:        u.at.label,
			Latitude:        &lat,
			Longitude:       &lng,
			Rating:          u.rating,
			TotalSales:      u.sales,
			ReputationBadge: u.badge,
			CreatedAt:       now.Add(-365 * day),
		})
	}
	for i, p := range products {
		id := uint64(i + 1)
		lat, lng := p.at.lat, p.at.lng
		prod := model.Product{
			ID:                id,
			Title:             p.title,
			Description:       p.description,
			Price:             cents(p.price),
			CategorySlug:      p.category,
			Location:          p.at.label,
			Latitude:          &lat,
			Longitude:         &lng,
			SellerUID:         p.seller,
			Condition:         p.condition,
			FastShipping:      p.fast,
			SecurePayment:     p.secure,
			FreeFirstShipping: true,
			Status:            model.ProductStatusActive,
			CreatedAt:         now.Add(-p.age),
			UpdatedAt:         now.Add(-p.age),
		}
		if p.minOffer > 0 {
			floor := cents(p.minOffer)
			prod.MinOfferPrice = &floor
			prod.AutoAcceptMessage = "¡Gracias por tu oferta! La acepto, coordinemos la entrega."
			prod.AutoRejectMessage = "Gracias por tu interés, pero la oferta está por debajo de lo que puedo aceptar."
		}
		for pos, photo := range p.photos {
			prod.Images = append(prod.Images, model.ProductImage{ProductID: id, ImageURL: PhotoURL(photo), Position: pos})
		}
		ds.Products = append(ds.Products, prod)
	}
	ds.Favorites = []model.Favorite{
		{UID: DemoUID, ProductID: 2, CreatedAt: now.Add(-2 * day)},
		{UID: DemoUID, ProductID: 5, CreatedAt: now.Add(-day)},
	}
	buildConversations(&ds, now)
	buildOffers(&ds, now)
	buildNotifications(&ds, now)
	return ds
}

type line struct {
	fromSeller bool
	body       string
	ago        time.Duration
	unread     bool // not yet seen by the recipient
}

type thread struct {
	productID uint64
	buyer     string
	lines     []line
}

var threads = []thread{
	{
		productID: 1, buyer: DemoUID,
		lines: []line{
			{false, "Hola, vi tu campera de cuero vintage. ¿Todavía está disponible?", 120 * time.Minute, false},
			{true, "¡Sí, todavía está disponible! ¿Estás interesado?", 110 * time.Minute, false},
			{false, "¡Genial! ¿La dejarías en $40.000?", 100 * time.Minute, false},
			{true, "Te la puedo dejar en $42.000, está en muy buen estado.", 90 * time.Minute, false},
			{false, "Dale, me sirve. ¿Cuándo y dónde nos podemos encontrar?", 60 * time.Minute, false},
			{true, "¿Qué tal en el centro cerca del café en la Avenida Principal? ¿Mañana a las 5pm?", 55 * time.Minute, false},
			{false, "¿La campera todavía está disponible?", 30 * time.Minute, true},
		},
	},
	{
		productID: 6, buyer: "user-3",
		lines: []line{
			{false, "¡Hola! ¿Estos discos de vinilo todavía están disponibles?", 1440 * time.Minute, false},
			{true, "¡Sí, lo están! ¿Estás interesada en toda la colección?", 1430 * time.Minute, false},
			{false, "¡Definitivamente! Colecciono vinilos clásicos. ¿Puedo ver una lista de todos los álbumes?", 1420 * time.Minute, false},
			{true, "Claro, te enviaré fotos de todas las portadas de los álbumes más tarde hoy.", 1410 * time.Minute, false},
			{false, "¿Podemos encontrarnos mañana por la tarde si te funciona?", 60 * time.Minute, false},
			{true, "¡Mañana funciona! ¿Qué tal a las 3pm en la tienda de discos del centro?", 10 * time.Minute, false},
			{false, "¡Perfecto! Nos vemos mañana a las 3pm.", 3 * time.Minute, false},
		},
	},
	{
		productID: 2, buyer: "user-5",
		lines: []line{
			{false, "Hola, ¿el iPhone todavía está disponible?", 2880 * time.Minute, false},
			{true, "¡Sí, lo está!", 2870 * time.Minute, false},
			{false, "¿Cuál es el precio más bajo que aceptarías?", 2860 * time.Minute, false},
			{true, "Podría dejarlo en $530000 si puedes recogerlo esta semana.", 2850 * time.Minute, false},
			{false, "Vivo fuera de la ciudad. ¿Estarías dispuesto a enviarlo si pago extra?", 720 * time.Minute, true},
			{false, "¿También viene con AppleCare+?", 715 * time.Minute, true},
		},
	},
}

func buildConversations(ds *Dataset, now time.Time) {
	var msgID uint64
	for i, th := range threads {
		convID := uint64(i + 1)
		seller := ds.Products[th.productID-1].SellerUID
		cv := model.Conversation{
			ID:        convID,
			ProductID: th.productID,
			SellerUID: seller,
			BuyerUID:  th.buyer,
			CreatedAt: now.Add(-th.lines[0].ago),
		}
		// last time each participant saw the other side's messages
		lastRead := map[string]time.Time{}
		for _, l := range th.lines {
			msgID++
			sender, recipient := th.buyer, seller
			if l.fromSeller {
				sender, recipient = seller, th.buyer
			}
			at := now.Add(-l.ago)
			ds.Messages = append(ds.Messages, model.Message{ID: msgID, ConversationID: convID, SenderUID: sender, Body: l.body, CreatedAt: at})
			if !l.unread {
				lastRead[recipient] = at
			}
			cv.LastMessageAt = at
		}
		cv.UpdatedAt = cv.LastMessageAt
		ds.Conversations = append(ds.Conversations, cv)
		for _, uid := range []string{seller, th.buyer} {
			if at, ok := lastRead[uid]; ok {
				ds.States = append(ds.States, model.ConversationState{ConversationID: convID, UID: uid, LastReadAt: at})
			}
		}
	}
}

func buildOffers(ds *Dataset, now time.Time) {
	decided := func(ago time.Duration) *time.Time {
		t := now.Add(-ago)
		return &t
	}
	offer := func(id, productID uint64, buyer string, pesos int64, msg string, ago time.Duration) model.Offer {
		return model.Offer{
			ID:        id,
			ProductID: productID,
			BuyerUID:  buyer,
			SellerUID: ds.Products[productID-1].SellerUID,
			Amount:    cents(pesos),
			Message:   msg,
			Status:    model.OfferStatusPending,
			CreatedAt: now.Add(-ago),
			UpdatedAt: now.Add(-ago),
		}
	}

	o1 := offer(1, 4, DemoUID, 170000, "Me interesa la bicicleta pero necesito que me la guardes hasta el fin de semana.", 2880*time.Minute)
	o1.Status = model.OfferStatusAccepted
	o1.DecidedAt = decided(2000 * time.Minute)

	o2 := offer(2, 1, "user-3", 40000, "Hola! Te ofrezco $40000 si me la guardas hasta el viernes.", 35*time.Minute)

	o3 := offer(3, 10, DemoUID, 55000, "Te ofrezco $55000 en efectivo, la puedo ir a buscar hoy mismo.", 1440*time.Minute)
	o3.Status = model.OfferStatusRejected
	o3.DecidedAt = decided(1400 * time.Minute)

	// product 6 decides automatically and 65000 meets its minimum
	o4 := offer(4, 6, "user-4", 65000, "Hola! Me interesa tu colección de vinilos. Te ofrezco $65000 si me los puedes enviar.", 500*time.Minute)
	o4.Status = model.OfferStatusAccepted
	o4.AutoHandled = true
	o4.Response = ds.Products[5].AutoAcceptMessage
	o4.DecidedAt = decided(500 * time.Minute)

	ds.Offers = []model.Offer{o1, o2, o3, o4}
}

func buildNotifications(ds *Dataset, now time.Time) {
	read := func(ago time.Duration) *time.Time {
		t := now.Add(-ago)
		return &t
	}
	id := func(v uint64) *uint64 { return &v }
	ds.Notifications = []model.Notification{
		{
			UserUID: "user-2", Type: model.NotificationOffer, Title: "Nueva oferta recibida",
			Body:    fmt.Sprintf("Has recibido una oferta de %s por tu Campera de Cuero Vintage", pricing.FormatAmount(cents(40000))),
			FromUID: "user-3", ProductID: id(1), OfferID: id(2), CreatedAt: now.Add(-35 * time.Minute),
		},
		{
			UserUID: "user-3", Type: model.NotificationMessage, Title: "Nuevo mensaje",
			Body:    "Lucía Fernández: ¡Perfecto! Nos vemos mañana a las 3pm.",
			FromUID: DemoUID, ProductID: id(6), ConversationID: id(2), ReadAt: read(time.Minute), CreatedAt: now.Add(-3 * time.Minute),
		},
		{
			UserUID: DemoUID, Type: model.NotificationOffer, Title: "Nueva oferta recibida",
			Body:    fmt.Sprintf("Has recibido una oferta de %s por tu Colección de Discos de Vinilo Clásicos", pricing.FormatAmount(cents(65000))),
			FromUID: "user-4", ProductID: id(6), OfferID: id(4), CreatedAt: now.Add(-500 * time.Minute),
		},
		{
			UserUID: DemoUID, Type: model.NotificationSystem, Title: "Promoción especial",
			Body:      "Publica 3 productos esta semana y obtén un 50% de descuento en destacados",
			CreatedAt: now.Add(-8640 * time.Minute),
		},
		{
			UserUID: DemoUID, Type: model.NotificationOfferAccepted, Title: "Oferta aceptada",
			Body:    "Carolina Vázquez ha aceptado tu oferta por la Bicicleta Montaña",
			FromUID: "user-5", ProductID: id(4), OfferID: id(1), CreatedAt: now.Add(-720 * time.Minute),
		},
		{
			UserUID: DemoUID, Type: model.NotificationOfferRejected, Title: "Oferta rechazada",
			Body:    "Alejandro Martínez ha rechazado tu oferta por la Raqueta de Tenis Wilson",
			FromUID: "user-6", ProductID: id(10), OfferID: id(3), ReadAt: read(1300 * time.Minute), CreatedAt: now.Add(-1400 * time.Minute),
		},
	}
}
