package extract

import (
	"fmt"
	"strings"
)

// availableCategories is the closed category vocabulary of the catalogue.
// The extractor instructs the model to map queries onto these exact names.
var availableCategories = []string{
	"Accessoires", "Applique", "Article de cuisine", "Article de décoration", "Article de maison",
	"Balade & Sommeil", "Baskets", "Berceuse & Veilleuse", "Blouses", "Blousons", "Bombers",
	"Bottes", "Bottes Hautes", "Business", "Bébé & Enfant", "Cabas", "Cardigans", "Chaussures",
	"Chaussures Confort", "Chaussures Plates", "Chaussures d'été", "Chemises", "Chemises Décontractées",
	"Chemises Imprimées", "Chemises en Lin", "Chemisiers", "Confort de maison", "Costumes", "Divers",
	"Drap housse", "Electroménager", "Ensembles", "Entretien de linge", "Eveil bébé", "Femmes",
	"Fer à repasser", "Foulards", "Gilets", "Hauts", "Hommes", "Jeans", "Jeans Droits", "Jeans Larges",
	"Jeans Relax", "Jeu d'imitation & Déguisement", "Jeu multi-média", "Jeux & Jouets", "Jupes",
	"Jupes Midi", "Lampe", "Linge de maison", "Literie", "Luminaire", "Lustre & Suspension", "Mailles",
	"Manteaux", "Manteaux en Laine", "Mini Sacs", "Miroir", "Miroir mural", "Mocassins", "Mules",
	"Nu-pieds", "Objets lumineux", "Outdoor", "Pantalons", "Pantalons Larges", "Pantalons de Costume",
	"Pantalons en Cuir", "Pantalons en Velours", "Parure de lit", "Plaid & Couverture", "Pochettes",
	"Polos", "Poussette", "Préparation culinaire", "Pulls", "Ramadan", "Rideau & Voilage & Store",
	"Robes", "Robes Chemise", "Robes Décontractées", "Robes Longues", "Robes Pull", "Robes d'été",
	"Robes de Soirée", "Robot de cuisine", "Running", "Sacoches", "Sacs", "Sacs à Bandoulière",
	"Sacs à Dos", "Sacs à Main", "Saladier & Plat & Moule", "Sandales", "Sneakers Blanches",
	"Sneakers en Daim", "Soirée", "Surchemises", "T-Shirts", "T-Shirts Manches Longues",
	"Tableau & Cadre photo", "Tableau & Toile", "Tabliers", "Tailleur", "Talons", "Tenues Casual",
	"Tenues Décontractées", "Tenues d'été", "Tenues de Cérémonie", "Tenues de Sortie", "Tops",
	"Tops Lingerie", "Tops de Soirée", "Tuniques", "Unisexe", "Vaisselle", "Vase", "Ventilateur",
	"Verre & Carafe", "Veste Légère", "Vestes", "Vestes Courtes", "Vestes en Cuir", "Vêtements",
	"Workwear", "Écharpes",
}

const schemaDescription = `{
  "id": {"type": "string", "description": "Identifiant unique du produit (slug)."},
  "type": {"type": "string", "description": "Type d'entité (product)."},
  "name": {"type": "string", "description": "Nom du produit."},
  "description": {"type": "string", "description": "Description enrichie et détaillée du produit."},
  "brand": {"type": "string", "description": "Marque du produit (ex: 'orca deco', 'Hervens')."},
  "categories": {"type": "array", "description": "Liste des catégories (ex: ['Vase', 'Article de décoration'])."},
  "keywords": {"type": "array", "description": "Mots-clés pré-générés pour la recherche."},
  "price": {"type": "object", "description": "Information prix."},
  "price.amount": {"type": "number", "description": "Prix en XOF."},
  "stock": {"type": "object", "description": "Information stock."},
  "stock.status": {"type": "string", "description": "Status (ex: 'in_stock')."},
  "attributes": {
    "type": "array",
    "description": "Attributs stockés en paires {key, value}. Clés en ANGLAIS: color, material, forme, dimensions, etc."
  }
}`

const exampleDocument = `{
  "id": "vase-en-ceramique-13x22cm-noir",
  "type": "product",
  "name": "VASE EN CERAMIQUE-13X22CM-NOIR",
  "brand": "orca deco",
  "categories": ["Vase"],
  "price": {"amount": 12500, "currency": "XOF"},
  "stock": {"status": "in_stock", "quantity": 36},
  "keywords": ["Céramique", "Noir", "Mat", "Moderne", "Vase"],
  "description": "Vase en céramique noir mat 13 x 22 cm, au corps bombé...",
  "attributes": [
    {"key": "color", "value": "Noir"},
    {"key": "material", "value": "Céramique"},
    {"key": "dimensions", "value": "13x22cm"},
    {"key": "forme", "value": "Amphore"}
  ]
}`

// buildPrompt renders the extraction prompt for one user query.
func buildPrompt(userQuery string) string {
	return fmt.Sprintf(promptTemplate,
		schemaDescription,
		exampleDocument,
		strings.Join(availableCategories, ", "),
		userQuery,
		userQuery,
	)
}

const promptTemplate = `You are an intelligent assistant designed to extract search filters and a semantic query
from a user's natural language request for a product database.

IMPORTANT - DATABASE SCHEMA:
- 'brand' field: Brand name (ex: 'orca deco', 'Hervens')
- 'keywords' field: Pre-generated keywords for better semantic search
- 'attributes' uses ENGLISH keys:
  * attributes.color (NOT couleur) - e.g. "Noir", "Blanc"
  * attributes.material (NOT materiau) - e.g. "Verre", "Céramique"
  * attributes.forme - e.g. "Cylindrique"
  * attributes.dimensions

DATABASE SCHEMA:
%s

EXAMPLE PRODUCT DOCUMENT:
%s

AVAILABLE CATEGORIES (Use these EXACT names for 'categories' filter):
%s

USER QUERY: "%s"

INSTRUCTIONS:
1. Extract a 'semantic_query' - enriched version of the query for vector search.
   If the query is purely about price or brand (e.g., "the most expensive product"),
   use generic terms like "produit" or the brand name.

2. Extract 'filters' with:
   - 'mandatory': Strict filters (categories, price ranges - ONLY numbers in value)
   - 'optional': Attribute filters (colors, materials, shapes)

PRICING LOGIC:
- "le plus cher", "haut de gamme", "luxe" -> sort: {"field": "price.amount", "order": "desc"}
- "pas cher", "moins cher", "abordable", "petit prix" -> sort: {"field": "price.amount", "order": "asc"}
- "entre X et Y" -> price.amount: {"operator": "range", "value": {"gte": X, "lte": Y}}
- "ne dépasse pas X", "moins de X", "maximum X" -> price.amount: {"operator": "range", "value": {"lte": X}}
- "au moins X", "à partir de X", "plus de X" -> price.amount: {"operator": "range", "value": {"gte": X}}
- "prix exact X", "coûte X" -> price.amount: {"operator": "term", "value": X}

AVAILABLE FILTER FIELDS:
- 'categories': Category match (Must be one of the AVAILABLE CATEGORIES) -> MANDATORY
- 'price.amount': Price range in XOF (e.g., {"lte": 15000}) -> MANDATORY
- 'brand': Brand filter (e.g., "orca deco") -> MANDATORY
- 'stock.status': Stock availability (e.g., "in_stock") -> MANDATORY
- 'attributes.color': Color filter with ENGLISH key (e.g., "Noir") -> OPTIONAL
- 'attributes.material': Material filter with ENGLISH key (e.g., "Verre") -> OPTIONAL

OUTPUT FORMAT (JSON only, no markdown):
{
    "semantic_query": "<enriched search query>",
    "filters": {
        "mandatory": {
            "field_name": { "operator": "term|range", "value": <value_as_json> }
        },
        "optional": {
            "field_name": { "operator": "term", "value": "<value>" }
        }
    },
    "sort": { "field": "<field_name>", "order": "asc|desc" },
    "confidence": <float 0-1>
}

EXAMPLES:

Query: "je cherche le produt le plus chère de orca deco"
{
    "semantic_query": "produit orca deco",
    "filters": {
        "mandatory": {
            "brand": { "operator": "term", "value": "orca deco" }
        },
        "optional": {}
    },
    "sort": { "field": "price.amount", "order": "desc" },
    "confidence": 0.95
}

Query: "vase pas trop chère entre 5000 et 10000"
{
    "semantic_query": "vase décoration",
    "filters": {
        "mandatory": {
            "categories": { "operator": "term", "value": "Vase" },
            "price.amount": { "operator": "range", "value": { "gte": 5000, "lte": 10000 } }
        },
        "optional": {}
    },
    "sort": { "field": "price.amount", "order": "asc" },
    "confidence": 0.95
}

Query: "produit qui ne dépasse pas 15000"
{
    "semantic_query": "produit",
    "filters": {
        "mandatory": {
            "price.amount": { "operator": "range", "value": { "lte": 15000 } }
        },
        "optional": {}
    },
    "confidence": 0.90
}

CRITICAL RULES:
1. Use ENGLISH keys for attributes: color, material (NOT couleur, materiau)
2. price.amount value MUST be a number or a range object with numbers. NO strings like "15000 FCFA".
3. Detect SORT intent implicitly ("pas trop cher" -> price asc, "le plus cher" -> price desc)
4. Return ONLY valid JSON, no markdown formatting
5. ALWAYS try to map the user query to one of the AVAILABLE CATEGORIES if possible.

Now extract filters for the user query: "%s"`
